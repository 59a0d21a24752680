package domain

import "testing"

func TestGenerationTypeMapping_IsUnknown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    GenerationTypeMapping
		want bool
	}{
		{name: "reserved id", m: GenerationTypeMapping{ExternalName: "Other", GenerationTypeID: UnknownGenerationTypeID}, want: true},
		{name: "real type", m: GenerationTypeMapping{ExternalName: "Fossil Gas", GenerationTypeID: 7}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.m.IsUnknown(); got != tt.want {
				t.Errorf("IsUnknown() = %v, want %v", got, tt.want)
			}
		})
	}
}
