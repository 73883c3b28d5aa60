package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCPF(t *testing.T) {
	t.Run("accepts punctuated form and normalizes to digits", func(t *testing.T) {
		cpf, err := ParseCPF("529.982.247-25")
		require.NoError(t, err)
		assert.Equal(t, "52998224725", cpf.String())
	})

	t.Run("accepts bare digits", func(t *testing.T) {
		cpf, err := ParseCPF("52998224725")
		require.NoError(t, err)
		assert.Equal(t, "52998224725", cpf.String())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseCPF("1234567890")
		assert.Error(t, err)
	})

	t.Run("rejects bad check digits", func(t *testing.T) {
		_, err := ParseCPF("529.982.247-26")
		assert.Error(t, err)
	})

	t.Run("rejects repeated-digit sequences", func(t *testing.T) {
		// These pass the check-digit math but are not issued CPFs.
		for _, s := range []string{"00000000000", "11111111111", "99999999999"} {
			_, err := ParseCPF(s)
			assert.Error(t, err, s)
		}
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseCPF("")
		assert.Error(t, err)
	})
}

func TestCPFFormat(t *testing.T) {
	cpf, err := ParseCPF("52998224725")
	require.NoError(t, err)
	assert.Equal(t, "529.982.247-25", cpf.Format())
}

// FuzzParseCPF checks that arbitrary input never produces a CPF outside the
// normalized 11-digit form.
func FuzzParseCPF(f *testing.F) {
	f.Add("529.982.247-25")
	f.Add("52998224725")
	f.Add("")
	f.Add("not-a-cpf")
	f.Add("111.111.111-11")
	f.Fuzz(func(t *testing.T, input string) {
		cpf, err := ParseCPF(input)
		if err != nil {
			return
		}
		if len(cpf.String()) != 11 {
			t.Fatalf("parsed CPF %q has %d digits", cpf, len(cpf.String()))
		}
		for _, r := range cpf.String() {
			if r < '0' || r > '9' {
				t.Fatalf("parsed CPF %q contains non-digit %q", cpf, r)
			}
		}
		// Reparsing the normalized form must agree with itself.
		again, err := ParseCPF(cpf.String())
		if err != nil {
			t.Fatalf("normalized CPF %q failed reparse: %v", cpf, err)
		}
		if again != cpf {
			t.Fatalf("reparse changed value: %q != %q", again, cpf)
		}
	})
}
