package dbusapi

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/smazurov/aurad/internal/events"
	"github.com/smazurov/aurad/internal/led"
)

// Bus names.
const (
	BusName    = "org.asuslinux.Daemon"
	Interface  = "org.asuslinux.Daemon"
	ObjectPath = dbus.ObjectPath("/org/asuslinux/Aura")

	PropLedBrightness       = "LedBrightness"
	SignalNotifyLed         = "NotifyLed"
	SignalNotifyPowerStates = "NotifyPowerStates"
)

// emitter sends signals. *dbus.Conn satisfies it.
type emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// propertySetter updates exported properties. *prop.Properties satisfies it.
type propertySetter interface {
	SetMust(iface, property string, v any)
}

// Server exports the Aura object on the system bus and turns controller
// events into bus signals.
type Server struct {
	aura     *Aura
	eventBus *events.Bus
	logger   *slog.Logger

	conn   *dbus.Conn
	emit   emitter
	props  propertySetter
	unsubs []func()
}

// NewServer creates a server. Call Start to go on the bus.
func NewServer(ctrl *led.Controller, eventBus *events.Bus, sysfsRoot string, logger *slog.Logger) *Server {
	s := &Server{
		aura:     newAura(ctrl, sysfsRoot, logger),
		eventBus: eventBus,
		logger:   logger,
	}
	s.aura.onBrightness = s.setBrightnessProperty
	return s
}

// Start connects to the system bus, exports the object and claims BusName.
func (s *Server) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}

	if err := s.export(conn); err != nil {
		conn.Close()
		return err
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("bus name %s already taken", BusName)
	}

	s.conn = conn
	s.emit = conn
	s.subscribe()

	s.logger.Info("D-Bus interface exported", "name", BusName, "path", ObjectPath)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	if s.conn != nil {
		_, _ = s.conn.ReleaseName(BusName)
		s.conn.Close()
		s.conn = nil
	}
	s.logger.Info("D-Bus interface stopped")
}

func (s *Server) export(conn *dbus.Conn) error {
	if err := conn.Export(s.aura, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export %s: %w", ObjectPath, err)
	}

	props, err := prop.Export(conn, ObjectPath, prop.Map{
		Interface: {
			PropLedBrightness: {
				Value:    s.aura.hardwareBrightness(),
				Writable: false,
				Emit:     prop.EmitTrue,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("export properties: %w", err)
	}
	s.props = props

	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       Interface,
				Methods:    introspect.Methods(s.aura),
				Properties: props.Introspection(Interface),
				Signals:    signalIntrospection(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}
	return nil
}

func signalIntrospection() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: SignalNotifyLed,
			Args: []introspect.Arg{{Name: "data", Type: dbus.SignatureOf(WireEffect{}).String()}},
		},
		{
			Name: SignalNotifyPowerStates,
			Args: []introspect.Arg{{Name: "data", Type: dbus.SignatureOf(WirePowerStates{}).String()}},
		},
	}
}

// subscribe forwards controller events as signals and property changes.
func (s *Server) subscribe() {
	if s.eventBus == nil {
		return
	}
	s.unsubs = append(s.unsubs,
		s.eventBus.Subscribe(func(e events.EffectChangedEvent) {
			s.signal(SignalNotifyLed, EffectToWire(e.Effect))
		}),
		s.eventBus.Subscribe(func(e events.PowerStatesChangedEvent) {
			s.signal(SignalNotifyPowerStates, PowerStatesToWire(e.PowerStates))
		}),
		s.eventBus.Subscribe(func(e events.BrightnessChangedEvent) {
			s.setBrightnessProperty(int16(e.Brightness))
		}),
	)
}

// signal emits fire-and-forget; failures are only logged.
func (s *Server) signal(name string, data any) {
	if s.emit == nil {
		return
	}
	if err := s.emit.Emit(ObjectPath, Interface+"."+name, data); err != nil {
		s.logger.Warn("Failed to emit signal", "signal", name, "error", err)
	}
}

func (s *Server) setBrightnessProperty(level int16) {
	if s.props != nil {
		s.props.SetMust(Interface, PropLedBrightness, level)
	}
}
