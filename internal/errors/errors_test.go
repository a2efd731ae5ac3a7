package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", Input("width must be positive"), "[INPUT_ERROR] width must be positive"},
		{"wrapped", Storage("write payload", cause), "[STORAGE_ERROR] write payload: connection refused"},
		{"formatted", Newf(TypeCatalog, "product %q has no materials", "banner"), `[CATALOG_ERROR] product "banner" has no materials`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTypeSurvivesWrapping(t *testing.T) {
	inner := Checkout("encode preview", stderrors.New("bad image"))
	outer := fmt.Errorf("handoff: %w", inner)

	assert.True(t, IsType(outer, TypeCheckout))
	assert.False(t, IsType(outer, TypeStorage))
	assert.Equal(t, TypeCheckout, TypeOf(outer))
	assert.Equal(t, TypeInternal, TypeOf(stderrors.New("other")))
	assert.ErrorIs(t, outer, inner)
}

func TestWithContext(t *testing.T) {
	err := NotFound("product", "banner").WithContext("tenant", "acme")
	assert.Equal(t, "acme", err.Context["tenant"])
}
