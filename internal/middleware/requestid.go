package middleware

import (
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key the request ID string is stored under.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware ensures every request carries an identifier, echoed back in the
// X-Request-ID response header and stored under RequestIDKey.
//
// The identifier comes from, in order:
//   - an inbound X-Request-ID header
//   - the API Gateway request id when running behind the Lambda adapter
//   - a new UUID v4
//
// Audit events carry the same id, so an exported audit row can be matched to the
// access log line of the request that produced it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			if gw, ok := core.GetAPIGatewayContextFromContext(c.Request.Context()); ok {
				id = gw.RequestID
			}
		}
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
