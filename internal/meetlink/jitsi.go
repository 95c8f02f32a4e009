package meetlink

import (
	"context"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/heartline/internal/apperror"
)

// DefaultJitsiBaseURL is the public Jitsi instance.
const DefaultJitsiBaseURL = "https://meet.jit.si"

// Jitsi builds room links locally without calling any API. A Jitsi room
// exists as soon as someone opens its URL.
type Jitsi struct {
	baseURL string
}

// NewJitsi returns a Jitsi provider rooted at baseURL (DefaultJitsiBaseURL when empty).
func NewJitsi(baseURL string) *Jitsi {
	if baseURL == "" {
		baseURL = DefaultJitsiBaseURL
	}
	return &Jitsi{baseURL: strings.TrimRight(baseURL, "/")}
}

func (j *Jitsi) CreateMeeting(ctx context.Context, _ Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperror.External("video", err)
	}
	return j.baseURL + "/heartline-" + xid.New().String(), nil
}
