package domain_test

import (
	"testing"

	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/genricoloni/wallcycle/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestFileID_Equal(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := mocks.NewMockImageSource(ctrl)
	b := mocks.NewMockImageSource(ctrl)
	a.EXPECT().Equal(b).Return(true).AnyTimes()
	a.EXPECT().Equal(a).Return(true).AnyTimes()

	tests := []struct {
		name     string
		x, y     domain.FileID
		expected bool
	}{
		{name: "same source and locator", x: domain.FileID{Source: a, Locator: "1.jpg"}, y: domain.FileID{Source: a, Locator: "1.jpg"}, expected: true},
		{name: "equal sources by value", x: domain.FileID{Source: a, Locator: "1.jpg"}, y: domain.FileID{Source: b, Locator: "1.jpg"}, expected: true},
		{name: "different locator", x: domain.FileID{Source: a, Locator: "1.jpg"}, y: domain.FileID{Source: a, Locator: "2.jpg"}, expected: false},
		{name: "missing source", x: domain.FileID{Source: a, Locator: "1.jpg"}, y: domain.FileID{Locator: "1.jpg"}, expected: false},
		{name: "both zero", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.x.Equal(tt.y))
		})
	}
}

func TestFileID_String(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockImageSource(ctrl)
	src.EXPECT().Name().Return("holidays")

	assert.Equal(t, "holidays:beach.jpg", domain.FileID{Source: src, Locator: "beach.jpg"}.String())
	assert.Equal(t, "beach.jpg", domain.FileID{Locator: "beach.jpg"}.String())
	assert.True(t, domain.FileID{}.IsZero())
	assert.False(t, domain.FileID{Locator: "x"}.IsZero())
}

func TestField_String(t *testing.T) {
	assert.Equal(t, "seconds_per_transition", domain.FieldChangeTime.String())
	assert.Equal(t, "sources", domain.FieldSources.String())
	assert.Equal(t, "field(42)", domain.Field(42).String())
}
