package common

import (
	"testing"
)

func TestChecksumAddress(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		expected string
	}{
		{
			name:     "lowercase address",
			addr:     "0x480fbe37526226b6c6e2a7afa449cdf661939d2f",
			expected: "0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f",
		},
		{
			name:     "already checksummed",
			addr:     "0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f",
			expected: "0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f",
		},
		{
			name:     "invalid address",
			addr:     "not_an_address",
			expected: "0x0000000000000000000000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := ChecksumAddress(tt.addr)
			if actual != tt.expected {
				t.Errorf("ChecksumAddress(%s): expected %s, but got %s", tt.addr, tt.expected, actual)
			}
		})
	}
}

func TestIsSameHexAddress(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{
			name:     "same casing",
			a:        "0x480fbe37526226b6c6e2a7afa449cdf661939d2f",
			b:        "0x480fbe37526226b6c6e2a7afa449cdf661939d2f",
			expected: true,
		},
		{
			name:     "different casing",
			a:        "0x480fbe37526226b6c6e2a7afa449cdf661939d2f",
			b:        "0x480Fbe37526226b6c6E2a7AfA449cDf661939D2f",
			expected: true,
		},
		{
			name:     "different addresses",
			a:        "0x480fbe37526226b6c6e2a7afa449cdf661939d2f",
			b:        "0x1234567890123456789012345678901234567890",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := IsSameHexAddress(tt.a, tt.b)
			if actual != tt.expected {
				t.Errorf("IsSameHexAddress(%s, %s): expected %t, but got %t", tt.a, tt.b, tt.expected, actual)
			}
		})
	}
}
