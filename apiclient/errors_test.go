package apiclient

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponseShapes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{
			name:        "top-level message",
			status:      400,
			body:        `{"message":"invalid region"}`,
			wantMessage: "invalid region",
			wantCode:    "HTTP_400",
		},
		{
			name:        "string detail",
			status:      404,
			body:        `{"detail":"property not found"}`,
			wantMessage: "property not found",
			wantCode:    "HTTP_404",
		},
		{
			name:        "object detail with code",
			status:      403,
			body:        `{"detail":{"message":"plan limit reached","code":"PLAN_LIMIT"}}`,
			wantMessage: "plan limit reached",
			wantCode:    "HTTP_403",
		},
		{
			name:        "validation array detail",
			status:      422,
			body:        `{"detail":[{"field":"price","msg":"must be positive"},{"field":"beds","msg":"required"}]}`,
			wantMessage: "price: must be positive; beds: required",
			wantCode:    "HTTP_422",
		},
		{
			name:        "top-level code wins",
			status:      429,
			body:        `{"message":"slow down","code":"RATE_LIMITED"}`,
			wantMessage: "slow down",
			wantCode:    "RATE_LIMITED",
		},
		{
			name:        "plain text body",
			status:      502,
			body:        "upstream exploded",
			wantMessage: "upstream exploded",
			wantCode:    "HTTP_502",
		},
		{
			name:        "empty body falls back to generic",
			status:      500,
			body:        "",
			wantMessage: "request failed with status 500",
			wantCode:    "HTTP_500",
		},
		{
			name:        "json without known fields falls back to generic",
			status:      500,
			body:        `{"oops":true}`,
			wantMessage: "request failed with status 500",
			wantCode:    "HTTP_500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := classifyResponse(tt.status, []byte(tt.body))
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, (&Error{StatusCode: 0}).IsNetwork())
	assert.False(t, (&Error{StatusCode: 500}).IsNetwork())

	assert.True(t, (&Error{StatusCode: http.StatusUnauthorized}).IsAuth())
	assert.True(t, (&Error{StatusCode: http.StatusForbidden}).IsAuth())
	assert.False(t, (&Error{StatusCode: http.StatusNotFound}).IsAuth())

	assert.True(t, (&Error{StatusCode: 503}).IsServer())
	assert.False(t, (&Error{StatusCode: 404}).IsServer())

	assert.True(t, (&Error{Code: CodeTimeout}).IsTimeout())
	assert.False(t, (&Error{Code: CodeNetwork}).IsTimeout())
}

func TestErrorString(t *testing.T) {
	assert.Equal(t,
		"NETWORK_ERROR: connection refused",
		(&Error{Message: "connection refused", Code: CodeNetwork}).Error())
	assert.Equal(t,
		"HTTP_404 (status 404): property not found",
		(&Error{Message: "property not found", StatusCode: 404, Code: "HTTP_404"}).Error())
}
