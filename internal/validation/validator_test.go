package validation

import "testing"

func TestDomainValidator(t *testing.T) {
	validate, err := NewValidator()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type input struct {
		Domain string `json:"domain" validate:"required,domain"`
	}

	cases := []struct {
		value string
		valid bool
	}{
		{"gong.io", true},
		{"sendoso.com", true},
		{"www.example.co.uk", true},
		{"https://gong.io", false},
		{"gong.io/path", false},
		{"localhost", false},
		{"-bad.com", false},
		{"", false},
	}
	for _, c := range cases {
		t.Run(c.value, func(t *testing.T) {
			err := validate.Struct(input{Domain: c.value})
			if c.valid && err != nil {
				t.Errorf("expected %q to be valid, got %v", c.value, err)
			}
			if !c.valid && err == nil {
				t.Errorf("expected %q to be invalid", c.value)
			}
		})
	}
}
