package fiberlog

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	TagPid       = "pid"
	TagStatus    = "status"
	TagLatency   = "latency"
	TagMethod    = "method"
	TagPath      = "path"
	TagIP        = "ip"
	TagQuery     = "query"
	TagBody      = "body"
	TagResBody   = "res_body"
	TagCompanyID = "company_id"
	TagUserID    = "user_id"
	RequestID    = "request_id"
)

// FuncTag extracts one log field from the finished request.
type FuncTag func(c *fiber.Ctx, d *data) interface{}

type data struct {
	pid   int
	start time.Time
	end   time.Time
}

var funcTags = map[string]FuncTag{
	TagPid: func(_ *fiber.Ctx, d *data) interface{} {
		return d.pid
	},
	TagStatus: func(c *fiber.Ctx, _ *data) interface{} {
		return c.Response().StatusCode()
	},
	TagLatency: func(_ *fiber.Ctx, d *data) interface{} {
		return d.end.Sub(d.start).String()
	},
	TagMethod: func(c *fiber.Ctx, _ *data) interface{} {
		return c.Method()
	},
	TagPath: func(c *fiber.Ctx, _ *data) interface{} {
		return c.Path()
	},
	TagIP: func(c *fiber.Ctx, _ *data) interface{} {
		return c.IP()
	},
	TagQuery: func(c *fiber.Ctx, _ *data) interface{} {
		return string(c.Request().URI().QueryString())
	},
	TagBody: func(c *fiber.Ctx, _ *data) interface{} {
		return string(c.Body())
	},
	TagResBody: func(c *fiber.Ctx, _ *data) interface{} {
		return string(c.Response().Body())
	},
	TagCompanyID: func(c *fiber.Ctx, _ *data) interface{} {
		return localString(c, TagCompanyID)
	},
	TagUserID: func(c *fiber.Ctx, _ *data) interface{} {
		return localString(c, TagUserID)
	},
	RequestID: func(c *fiber.Ctx, _ *data) interface{} {
		return c.GetRespHeader(fiber.HeaderXRequestID)
	},
}

func localString(c *fiber.Ctx, key string) string {
	value, _ := c.Locals(key).(string)
	return value
}

// getFuncTagMap keeps only the tags requested by the config, unknown tags are skipped
func getFuncTagMap(cfg Config, _ *data) map[string]FuncTag {
	ftm := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := funcTags[tag]; ok {
			ftm[tag] = ft
		}
	}
	return ftm
}
