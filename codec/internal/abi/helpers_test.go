package abi

import (
	"math"
	"testing"
)

func TestSafeAddU32(t *testing.T) {
	tests := []struct {
		a, b uint32
		want uint32
		ok   bool
	}{
		{0, 0, 0, true},
		{1, 2, 3, true},
		{math.MaxUint32, 0, math.MaxUint32, true},
		{math.MaxUint32, 1, 0, false},
		{math.MaxUint32 - 7, 7, math.MaxUint32, true},
		{math.MaxUint32 - 7, 8, 0, false},
	}
	for _, tt := range tests {
		got, ok := SafeAddU32(tt.a, tt.b)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("SafeAddU32(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSafeMulU32(t *testing.T) {
	tests := []struct {
		a, b uint32
		want uint32
		ok   bool
	}{
		{0, 0, 0, true},
		{0, math.MaxUint32, 0, true},
		{3, 5, 15, true},
		{1 << 16, 1 << 16, 0, false},
		{math.MaxUint32, 1, math.MaxUint32, true},
		{math.MaxUint32, 2, 0, false},
		{math.MaxUint32/3 + 1, 3, 0, false},
	}
	for _, tt := range tests {
		got, ok := SafeMulU32(tt.a, tt.b)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("SafeMulU32(%d, %d) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align uint32
		want          uint32
		ok            bool
	}{
		{0, 8, 0, true},
		{1, 8, 8, true},
		{8, 8, 8, true},
		{9, 8, 16, true},
		{21, 8, 24, true},
		{math.MaxUint32 - 6, 8, 0, false},
		{math.MaxUint32 - 7, 8, math.MaxUint32 - 7, true},
	}
	for _, tt := range tests {
		got, ok := AlignTo(tt.offset, tt.align)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("AlignTo(%d, %d) = %d, %v; want %d, %v", tt.offset, tt.align, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsAligned(t *testing.T) {
	if !IsAligned(16, 8) || IsAligned(12, 8) || !IsAligned(0, 8) {
		t.Error("IsAligned misclassified offsets")
	}
}
