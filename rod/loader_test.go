package rod_test

import (
	"testing"

	"github.com/fwojciec/prodex/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestIsJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mime string
		want bool
	}{
		{"application/json", true},
		{"application/ld+json", true},
		{"Application/JSON; charset=utf-8", true},
		{"application/graphql-response+json", true},
		{"text/html", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, rod.IsJSON(tt.mime))
		})
	}
}

func response(id, url, mime string, typ proto.NetworkResourceType, status int) *proto.NetworkResponseReceived {
	return &proto.NetworkResponseReceived{
		RequestID: proto.NetworkRequestID(id),
		Type:      typ,
		Response: &proto.NetworkResponse{
			URL:      url,
			Status:   status,
			MIMEType: mime,
		},
	}
}

func TestResponseLog(t *testing.T) {
	t.Parallel()

	t.Run("first document sets status", func(t *testing.T) {
		t.Parallel()

		status, _ := rod.ObserveResponses(
			response("1", "https://shop.test/p/1", "text/html", proto.NetworkResourceTypeDocument, 404),
			response("2", "https://ads.test/frame", "text/html", proto.NetworkResourceTypeDocument, 200),
		)

		assert.Equal(t, 404, status)
	})

	t.Run("keeps xhr and fetch json only", func(t *testing.T) {
		t.Parallel()

		_, urls := rod.ObserveResponses(
			response("1", "https://shop.test/p/1", "text/html", proto.NetworkResourceTypeDocument, 200),
			response("2", "https://shop.test/api/product", "application/json", proto.NetworkResourceTypeXHR, 200),
			response("3", "https://shop.test/graphql", "application/json; charset=utf-8", proto.NetworkResourceTypeFetch, 200),
			response("4", "https://shop.test/app.js", "application/javascript", proto.NetworkResourceTypeScript, 200),
			response("5", "https://shop.test/manifest.json", "application/json", proto.NetworkResourceTypeOther, 200),
			response("6", "https://shop.test/styles", "text/css", proto.NetworkResourceTypeFetch, 200),
		)

		assert.Equal(t, []string{"https://shop.test/api/product", "https://shop.test/graphql"}, urls)
	})

	t.Run("no document leaves status unknown", func(t *testing.T) {
		t.Parallel()

		status, urls := rod.ObserveResponses()

		assert.Zero(t, status)
		assert.Empty(t, urls)
	})
}
