package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/aurad/internal/aura"
)

// toHTTPError maps controller errors to status codes: bad input is 400,
// missing hardware is 503, everything else 500.
func toHTTPError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *aura.Error
	if !errors.As(err, &ae) {
		return huma.Error500InternalServerError(msg, err)
	}
	switch ae.Kind {
	case aura.KindNotSupported, aura.KindParse:
		return huma.Error400BadRequest(msg, err)
	case aura.KindCapabilityMissing, aura.KindNodeMissing:
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
