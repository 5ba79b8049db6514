package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matryer/is"
)

func Test_KindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct kind",
			err:  New(NotFound, "trip not found"),
			want: NotFound,
		},
		{
			name: "wrapped once",
			err:  fmt.Errorf("loading trip: %w", New(Forbidden, "not yours")),
			want: Forbidden,
		},
		{
			name: "wrapped twice",
			err:  fmt.Errorf("handler: %w", fmt.Errorf("store: %w", New(Conflict, "email exists"))),
			want: Conflict,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: Internal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(KindOf(tt.err), tt.want)
		})
	}
}

func Test_Wrap_KeepsCause(t *testing.T) {
	is := is.New(t)
	cause := errors.New("connection refused")
	err := Wrap(UpstreamTimeout, cause, "routing service unavailable")
	is.True(errors.Is(err, cause))
	is.Equal(KindOf(err), UpstreamTimeout)
	is.Equal(MessageOf(err), "routing service unavailable")
}

func Test_WithDetail(t *testing.T) {
	is := is.New(t)
	err := New(UpstreamInvalid, "could not geocode address").
		WithDetail("field", "dropoff_location")
	is.Equal(DetailsOf(err)["field"], "dropoff_location")
}

func Test_Codes(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Validation, "VALIDATION"},
		{Unauthenticated, "UNAUTHENTICATED"},
		{Forbidden, "FORBIDDEN"},
		{NotFound, "NOT_FOUND"},
		{Conflict, "CONFLICT"},
		{RateLimited, "RATE_LIMITED"},
		{UpstreamInvalid, "UPSTREAM_INVALID"},
		{UpstreamTimeout, "UPSTREAM_TIMEOUT"},
		{Internal, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			is := is.New(t)
			is.Equal(tt.kind.Code(), tt.want)
		})
	}
}
