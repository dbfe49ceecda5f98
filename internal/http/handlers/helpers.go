package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/valyala/fasthttp"
)

// RequestLogger returns fasthttp middleware that logs method, path, status, duration.
func RequestLogger(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		log.Printf("%s %s -> %d (%s) ip=%s", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start), ctx.RemoteAddr())
	}
}

func jsonResponse(ctx *fasthttp.RequestCtx, data any) {
	ctx.SetContentType("application/json")
	body, _ := json.Marshal(data)
	ctx.SetBody(body)
}

// errDetail mirrors the tracker protocol's error shape: {"detail": "..."}.
func errDetail(ctx *fasthttp.RequestCtx, code int, detail string) {
	ctx.SetStatusCode(code)
	jsonResponse(ctx, map[string]any{"detail": detail})
}

// readJSON unmarshals the request body into dst, replying 400 on failure.
func readJSON(ctx *fasthttp.RequestCtx, dst any) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		errDetail(ctx, fasthttp.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// clientIP prefers the payload's IP override, falling back to the connection
// remote address.
func clientIP(ctx *fasthttp.RequestCtx, override string) string {
	if override != "" {
		return override
	}
	return ctx.RemoteIP().String()
}
