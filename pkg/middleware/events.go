package middleware

import (
	appSecurity "github.com/NeuralTrust/FormGate/pkg/app/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

func recordEvent(recorder appSecurity.Recorder, c *fiber.Ctx, t security.EventType, details map[string]interface{}) {
	if recorder == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["method"] = utils.RequestMethod(c)
	if id := requestID(c); id != "" {
		details["request_id"] = id
	}
	recorder.Record(c.UserContext(), security.Event{
		Type:      t,
		IP:        utils.ClientIP(c),
		Path:      utils.RequestPath(c),
		UserAgent: utils.UserAgent(c),
		Details:   details,
	})
}
