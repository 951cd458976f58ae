package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/dbusapi"
	"github.com/smazurov/aurad/internal/systemd"
)

// ledClient is the subset of the bus client the led commands use.
type ledClient interface {
	SetBrightness(level aura.LedBrightness) error
	NextBrightness() error
	PrevBrightness() error
	Brightness() (int16, error)
	SetEffect(e aura.Effect) error
	NextMode() error
	PrevMode() error
	Mode() (aura.ModeID, error)
	Modes() (map[aura.ModeID]aura.Effect, error)
	SetPowerStates(p aura.PowerStates) error
	PowerStates() (aura.PowerStates, error)
	DeviceType() (string, error)
	SupportedModes() ([]string, error)
	Close() error
}

// Overridden in tests.
var (
	dialLed = func() (ledClient, error) {
		return dbusapi.Dial()
	}
	serviceState = func(ctx context.Context) (string, error) {
		units, err := systemd.NewUnits(ctx)
		if err != nil {
			return "", err
		}
		defer units.Close()
		return units.ActiveState(ctx, systemd.ServiceName)
	}
)

// CreateLedCmd creates the led command and its subcommands.
func CreateLedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "led",
		Short: "Control the keyboard LEDs of a running daemon",
		Long:  `Talks to the daemon over the system D-Bus (org.asuslinux.Daemon). The daemon must be running.`,
	}
	cmd.AddCommand(
		createBrightnessCmd(),
		createModeCmd(),
		createEffectCmd(),
		createPowerCmd(),
		createStatusCmd(),
	)
	return cmd
}

// withClient dials the daemon, runs fn and closes the connection.
func withClient(fn func(c ledClient) error) error {
	c, err := dialLed()
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer c.Close()
	return fn(c)
}

func createBrightnessCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "brightness [next|prev|0-3|off|low|med|high]",
		Short:     "Show or change keyboard brightness",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"next", "prev", "off", "low", "med", "high"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c ledClient) error {
				if len(args) == 0 {
					return printBrightness(cmd.OutOrStdout(), c)
				}
				switch strings.ToLower(args[0]) {
				case "next":
					return c.NextBrightness()
				case "prev":
					return c.PrevBrightness()
				}
				level, err := aura.ParseBrightness(args[0])
				if err != nil {
					return err
				}
				return c.SetBrightness(level)
			})
		},
	}
}

func createModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "mode [next|prev]",
		Short:     "Show the current mode or cycle through supported modes",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"next", "prev"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(c ledClient) error {
				if len(args) == 0 {
					mode, err := c.Mode()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), mode)
					return nil
				}
				switch strings.ToLower(args[0]) {
				case "next":
					return c.NextMode()
				case "prev":
					return c.PrevMode()
				default:
					return fmt.Errorf("unknown mode action %q, want next or prev", args[0])
				}
			})
		},
	}
}

func createEffectCmd() *cobra.Command {
	var zone, colour, colour2, speed, direction string

	cmd := &cobra.Command{
		Use:   "effect <mode>",
		Short: "Apply and save an effect",
		Long:  `Apply an effect and make it the current mode. Options that are not given take the mode's defaults.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			effect, err := buildEffect(args[0], zone, colour, colour2, speed, direction)
			if err != nil {
				return err
			}
			return withClient(func(c ledClient) error {
				return c.SetEffect(effect)
			})
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "Zone: None, Key1-Key4, Logo, BarLeft, BarRight")
	cmd.Flags().StringVar(&colour, "colour", "", "Primary colour as #rrggbb")
	cmd.Flags().StringVar(&colour2, "colour2", "", "Secondary colour as #rrggbb")
	cmd.Flags().StringVar(&speed, "speed", "", "Speed: Low, Med, High")
	cmd.Flags().StringVar(&direction, "direction", "", "Direction: Right, Left, Up, Down")
	return cmd
}

func buildEffect(mode, zone, colour, colour2, speed, direction string) (aura.Effect, error) {
	id, err := aura.ParseModeID(mode)
	if err != nil {
		return aura.Effect{}, err
	}
	e := aura.DefaultEffect(id)
	if zone != "" {
		if e.Zone, err = aura.ParseZone(zone); err != nil {
			return aura.Effect{}, err
		}
	}
	if colour != "" {
		if e.Colour1, err = aura.ParseColour(colour); err != nil {
			return aura.Effect{}, err
		}
	}
	if colour2 != "" {
		if e.Colour2, err = aura.ParseColour(colour2); err != nil {
			return aura.Effect{}, err
		}
	}
	if speed != "" {
		if e.Speed, err = aura.ParseSpeed(speed); err != nil {
			return aura.Effect{}, err
		}
	}
	if direction != "" {
		if e.Direction, err = aura.ParseDirection(direction); err != nil {
			return aura.Effect{}, err
		}
	}
	return e, nil
}

func createPowerCmd() *cobra.Command {
	var states aura.PowerStates

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Show or change LED power states",
		Long:  `Without flags prints the saved power states. Flags that are given replace the saved value, the rest are kept.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(func(c ledClient) error {
				current, err := c.PowerStates()
				if err != nil {
					return err
				}
				flags := cmd.Flags()
				if flags.NFlag() == 0 {
					printPowerStates(cmd.OutOrStdout(), current)
					return nil
				}
				apply := func(name string, dst *bool, v bool) {
					if flags.Changed(name) {
						*dst = v
					}
				}
				apply("boot", &current.BootAnim, states.BootAnim)
				apply("sleep", &current.SleepAnim, states.SleepAnim)
				apply("all", &current.AllLeds, states.AllLeds)
				apply("keys", &current.KeysLeds, states.KeysLeds)
				apply("side", &current.SideLeds, states.SideLeds)
				return c.SetPowerStates(current)
			})
		},
	}

	cmd.Flags().BoolVar(&states.BootAnim, "boot", false, "Boot animation")
	cmd.Flags().BoolVar(&states.SleepAnim, "sleep", false, "Sleep animation")
	cmd.Flags().BoolVar(&states.AllLeds, "all", false, "Logo and lightbar while awake")
	cmd.Flags().BoolVar(&states.KeysLeds, "keys", false, "Keyboard while awake")
	cmd.Flags().BoolVar(&states.SideLeds, "side", false, "Side lightbar while awake")
	return cmd
}

func createStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and keyboard state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			state, err := serviceState(ctx)
			if err != nil {
				state = "unknown"
			}
			fmt.Fprintf(out, "Service:     %s (%s)\n", systemd.ServiceName, state)

			return withClient(func(c ledClient) error {
				devType, err := c.DeviceType()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Device:      %s\n", devType)

				modes, err := c.SupportedModes()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Modes:       %s\n", strings.Join(modes, ", "))

				mode, err := c.Mode()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Mode:        %s\n", mode)
				if saved, err := c.Modes(); err == nil {
					if e, ok := saved[mode]; ok {
						fmt.Fprintf(out, "Effect:      zone=%s colour=%s colour2=%s speed=%s direction=%s\n",
							e.Zone, e.Colour1.Hex(), e.Colour2.Hex(), e.Speed, e.Direction)
					}
				}

				if err := printBrightness(out, c); err != nil {
					return err
				}

				states, err := c.PowerStates()
				if err != nil {
					return err
				}
				printPowerStates(out, states)
				return nil
			})
		},
	}
}

func printBrightness(out io.Writer, c ledClient) error {
	level, err := c.Brightness()
	if err != nil {
		return err
	}
	if level < 0 {
		fmt.Fprintln(out, "Brightness:  unreadable")
		return nil
	}
	fmt.Fprintf(out, "Brightness:  %s (%d)\n", aura.LedBrightness(level), level)
	return nil
}

func printPowerStates(out io.Writer, p aura.PowerStates) {
	fmt.Fprintf(out, "Power:       boot=%t sleep=%t all=%t keys=%t side=%t\n",
		p.BootAnim, p.SleepAnim, p.AllLeds, p.KeysLeds, p.SideLeds)
}
