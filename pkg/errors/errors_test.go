package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrValidation, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrInternal, http.StatusInternalServerError},
		{stderrors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatusCode(tc.err); got != tc.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestHTTPStatusCodeWrappedSentinel(t *testing.T) {
	err := fmt.Errorf("product 7: %w", ErrNotFound)
	if got := HTTPStatusCode(err); got != http.StatusNotFound {
		t.Errorf("HTTPStatusCode(wrapped) = %d, want 404", got)
	}
}

func TestAppErrorOverridesStatus(t *testing.T) {
	err := New(ErrInternal, http.StatusBadGateway, "upstream broke")
	if got := HTTPStatusCode(err); got != http.StatusBadGateway {
		t.Errorf("HTTPStatusCode(AppError) = %d, want 502", got)
	}
	if !stderrors.Is(err, ErrInternal) {
		t.Error("AppError does not unwrap to its sentinel")
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(ErrValidation, http.StatusBadRequest, "field %q is empty", "name")
	want := `validation failed: field "name" is empty`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
