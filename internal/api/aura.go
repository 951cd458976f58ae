package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/aurad/internal/api/models"
	"github.com/smazurov/aurad/internal/aura"
	"github.com/smazurov/aurad/internal/led"
)

// registerAuraRoutes registers the keyboard control endpoints.
func (s *Server) registerAuraRoutes() {
	if s.ctrl == nil {
		s.logger.Debug("LED controller not available, skipping keyboard routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-aura-state",
		Method:      http.MethodGet,
		Path:        "/api/aura/state",
		Summary:     "Keyboard State",
		Description: "Get brightness, current effect and power flags in one call",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StateResponse, error) {
		var out models.StateData
		_ = s.ctrl.Do(func(k *led.KbdLed) error {
			cfg := k.Config()
			out.Brightness = models.BrightnessToData(hardwareLevel(k), cfg.Brightness)
			out.PowerStates = models.PowerStatesToData(cfg.PowerStates)
			if e, ok := cfg.CurrentEffect(); ok {
				d := models.EffectToData(e)
				out.Effect = &d
			}
			return nil
		})
		return &models.StateResponse{Body: out}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-aura-brightness",
		Method:      http.MethodGet,
		Path:        "/api/aura/brightness",
		Summary:     "Get Brightness",
		Description: "Read the hardware brightness level and the persisted one",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.BrightnessResponse, error) {
		return &models.BrightnessResponse{Body: s.brightness()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-aura-brightness",
		Method:      http.MethodPut,
		Path:        "/api/aura/brightness",
		Summary:     "Set Brightness",
		Description: "Set the hardware brightness level without persisting it",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500, 503},
	}, func(_ context.Context, input *models.BrightnessRequest) (*models.BrightnessResponse, error) {
		err := s.ctrl.Do(func(k *led.KbdLed) error {
			return k.SetBrightness(aura.BrightnessFromUint(input.Body.Level))
		})
		if err != nil {
			return nil, toHTTPError("Failed to set brightness", err)
		}
		return &models.BrightnessResponse{Body: s.brightness()}, nil
	})

	s.registerStep("next-aura-brightness", "/api/aura/brightness/next", "Next Brightness",
		"Step brightness up, wrapping High to Off, and persist it",
		func(k *led.KbdLed) error { return k.NextBrightness() })

	s.registerStep("prev-aura-brightness", "/api/aura/brightness/prev", "Previous Brightness",
		"Step brightness down, wrapping Off to High, and persist it",
		func(k *led.KbdLed) error { return k.PrevBrightness() })

	huma.Register(s.api, huma.Operation{
		OperationID: "get-aura-effect",
		Method:      http.MethodGet,
		Path:        "/api/aura/effect",
		Summary:     "Get Effect",
		Description: "Get the saved effect of the current mode",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, _ *struct{}) (*models.EffectResponse, error) {
		var (
			e  aura.Effect
			ok bool
		)
		_ = s.ctrl.Do(func(k *led.KbdLed) error {
			e, ok = k.Config().CurrentEffect()
			return nil
		})
		if !ok {
			return nil, huma.Error404NotFound("No effect saved for the current mode")
		}
		return &models.EffectResponse{Body: models.EffectToData(e)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-aura-effect",
		Method:      http.MethodPut,
		Path:        "/api/aura/effect",
		Summary:     "Set Effect",
		Description: "Apply an effect, persist it and re-apply the saved brightness. Omitted fields take the mode defaults.",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500, 503},
	}, func(_ context.Context, input *models.EffectRequest) (*models.EffectResponse, error) {
		effect, err := input.Body.Effect()
		if err != nil {
			return nil, toHTTPError("Invalid effect", err)
		}
		err = s.ctrl.Do(func(k *led.KbdLed) error {
			if err := k.SetAndSave(effect); err != nil {
				return err
			}
			return k.SetBrightness(k.Config().Brightness)
		})
		if err != nil {
			return nil, toHTTPError("Failed to set effect", err)
		}
		return &models.EffectResponse{Body: models.EffectToData(effect)}, nil
	})

	s.registerStep("next-aura-mode", "/api/aura/mode/next", "Next Mode",
		"Switch to the next supported mode",
		func(k *led.KbdLed) error { return k.ToggleMode(false) })

	s.registerStep("prev-aura-mode", "/api/aura/mode/prev", "Previous Mode",
		"Switch to the previous supported mode",
		func(k *led.KbdLed) error { return k.ToggleMode(true) })

	huma.Register(s.api, huma.Operation{
		OperationID: "list-aura-modes",
		Method:      http.MethodGet,
		Path:        "/api/aura/modes",
		Summary:     "List Modes",
		Description: "Get the current mode and the saved effect of every global mode",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ModesResponse, error) {
		out := models.ModesData{Builtins: make(map[string]models.EffectData)}
		_ = s.ctrl.Do(func(k *led.KbdLed) error {
			cfg := k.Config()
			out.Current = cfg.CurrentMode.String()
			for mode, e := range cfg.Builtins {
				out.Builtins[mode.String()] = models.EffectToData(e)
			}
			return nil
		})
		return &models.ModesResponse{Body: out}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-aura-power",
		Method:      http.MethodGet,
		Path:        "/api/aura/power",
		Summary:     "Get Power States",
		Description: "Get the saved LED power flags",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PowerStatesResponse, error) {
		var states aura.PowerStates
		_ = s.ctrl.Do(func(k *led.KbdLed) error {
			states = k.Config().PowerStates
			return nil
		})
		return &models.PowerStatesResponse{Body: models.PowerStatesToData(states)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-aura-power",
		Method:      http.MethodPut,
		Path:        "/api/aura/power",
		Summary:     "Set Power States",
		Description: "Persist and apply all five LED power flags",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500, 503},
	}, func(_ context.Context, input *models.PowerStatesRequest) (*models.PowerStatesResponse, error) {
		err := s.ctrl.Do(func(k *led.KbdLed) error {
			return k.SetPowerStates(input.Body.PowerStates())
		})
		if err != nil {
			return nil, toHTTPError("Failed to set power states", err)
		}
		return &models.PowerStatesResponse{Body: input.Body}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "write-aura-raw",
		Method:      http.MethodPost,
		Path:        "/api/aura/raw",
		Summary:     "Direct Addressing",
		Description: "Write raw per-key packets. Row order alternates between uploads.",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500, 503},
	}, func(_ context.Context, input *models.RawRequest) (*struct{}, error) {
		err := s.ctrl.Do(func(k *led.KbdLed) error {
			return k.WriteEffectBlock(input.Body.Rows)
		})
		if err != nil {
			return nil, toHTTPError("Failed to write packets", err)
		}
		return &struct{}{}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-aura-capabilities",
		Method:      http.MethodGet,
		Path:        "/api/aura/capabilities",
		Summary:     "Capabilities",
		Description: "Get the keyboard type and what it supports",
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.CapabilitiesResponse, error) {
		node := s.ctrl.LedNode()
		var fns aura.SupportedFunctions
		_ = s.ctrl.Do(func(k *led.KbdLed) error {
			fns = k.Functions()
			return nil
		})
		return &models.CapabilitiesResponse{
			Body: models.CapabilitiesData{
				DeviceType: led.DeviceType(led.NodeProductID(s.options.SysfsRoot, node)),
				LedNode:    node,
				Functions:  fns,
			},
		}, nil
	})

	s.logger.Info("Keyboard routes registered")
}

// registerStep registers a body-less POST that runs fn under the controller.
func (s *Server) registerStep(id, path, summary, description string, fn func(k *led.KbdLed) error) {
	huma.Register(s.api, huma.Operation{
		OperationID: id,
		Method:      http.MethodPost,
		Path:        path,
		Summary:     summary,
		Description: description,
		Tags:        []string{"aura"},
		Security:    withAuth(),
		Errors:      []int{401, 500, 503},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		if err := s.ctrl.Do(fn); err != nil {
			return nil, toHTTPError(summary+" failed", err)
		}
		return &struct{}{}, nil
	})
}

func (s *Server) brightness() models.BrightnessData {
	var out models.BrightnessData
	_ = s.ctrl.Do(func(k *led.KbdLed) error {
		out = models.BrightnessToData(hardwareLevel(k), k.Config().Brightness)
		return nil
	})
	return out
}

// hardwareLevel reads the node, -1 when unreadable.
func hardwareLevel(k *led.KbdLed) int {
	b, err := k.Brightness()
	if err != nil {
		return -1
	}
	return int(b)
}
