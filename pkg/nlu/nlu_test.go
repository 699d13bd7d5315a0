package nlu

import (
	"strings"
	"testing"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag  string
		want Action
	}{
		{"add_vehicle", ActionAddVehicle},
		{"search_vehicle", ActionSearchVehicle},
		{"sell_vehicle", ActionSellVehicle},
		{"delete_vehicle", ActionDeleteVehicle},
		{"extract_chassis", ActionExtractChassis},
		{"get_stats", ActionGetStats},
		{"unknown", ActionUnknown},
		{"", ActionUnknown},
		{"ADD_VEHICLE", ActionUnknown},
		{"buy_vehicle", ActionUnknown},
		{"drop table vehicles", ActionUnknown},
	}

	for _, tc := range cases {
		if got := ParseAction(tc.tag); got != tc.want {
			t.Errorf("ParseAction(%q) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestParsePayload(t *testing.T) {
	t.Parallel()

	t.Run("full payload", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`{
			"intent": "sell_vehicle",
			"entities": {"chassisNumber": "ABC123"},
			"confidence": 0.93,
			"action": "sell_vehicle"
		}`)

		cmd, err := ParsePayload(raw)
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}

		if cmd.Action != ActionSellVehicle {
			t.Errorf("Action = %q, want sell_vehicle", cmd.Action)
		}
		if cmd.Entities[EntityChassisNumber] != "ABC123" {
			t.Errorf("chassisNumber = %q, want ABC123", cmd.Entities[EntityChassisNumber])
		}
		if cmd.Confidence != 0.93 {
			t.Errorf("Confidence = %v, want 0.93", cmd.Confidence)
		}
	})

	t.Run("unknown action tag degrades", func(t *testing.T) {
		t.Parallel()

		cmd, err := ParsePayload([]byte(`{"intent": "greet", "action": "greet", "content": "أهلاً"}`))
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if cmd.Action != ActionUnknown {
			t.Errorf("Action = %q, want unknown", cmd.Action)
		}
		if cmd.Content != "أهلاً" {
			t.Errorf("Content = %q", cmd.Content)
		}
	})

	t.Run("nil entities become empty map", func(t *testing.T) {
		t.Parallel()

		cmd, err := ParsePayload([]byte(`{"intent": "get_stats", "action": "get_stats"}`))
		if err != nil {
			t.Fatalf("ParsePayload: %v", err)
		}
		if cmd.Entities == nil {
			t.Error("Entities is nil, want empty map")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		if _, err := ParsePayload([]byte(`{"intent": `)); err == nil {
			t.Error("expected error for malformed payload")
		}
	})

	t.Run("missing intent", func(t *testing.T) {
		t.Parallel()

		if _, err := ParsePayload([]byte(`{"action": "get_stats"}`)); err == nil {
			t.Error("expected error for missing intent")
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "أضف سيارة جديدة", "أضف سيارة جديدة"},
		{"strips tashkeel", "أَضِفْ سَيَّارَة", "أضف سيارة"},
		{"collapses whitespace", "  أضف   سيارة \n جديدة ", "أضف سيارة جديدة"},
		{"latin passthrough", "ABC123", "ABC123"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Normalize(tc.in)
			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if strings.Contains(got, "  ") {
				t.Errorf("Normalize left doubled spaces in %q", got)
			}
		})
	}
}
