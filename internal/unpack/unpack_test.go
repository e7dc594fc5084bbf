package unpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReconstruct(t *testing.T) {
	cases := []struct {
		name     string
		splitVal []byte
		fragVal  []byte
		want     []byte
	}{
		{"both nil", nil, nil, nil},
		{"nil split, frag present", nil, []byte("tail"), []byte("tail")},
		{"split present, nil frag", []byte("head"), nil, []byte("head")},
		{"both present concatenate", []byte("head"), []byte("tail"), []byte("headtail")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Reconstruct(c.splitVal, c.fragVal)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}
