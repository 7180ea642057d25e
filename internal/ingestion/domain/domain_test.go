package domain

import "testing"

func TestNormalizeState(t *testing.T) {
	cases := []struct {
		raw  string
		want CandidateState
	}{
		{"open", StateOpen},
		{"OPEN", StateOpen},
		{"Abierto", StateOpen},
		{"abierta", StateOpen},
		{"lost", StateLost},
		{"Perdida", StateLost},
		{"perdido", StateLost},
		{"abandoned", StateAbandoned},
		{"ABANDONADA", StateAbandoned},
		{"abandonado", StateAbandoned},
		{"  open  ", StateOpen},
		{"won", CandidateState("WON")},
	}
	for _, tc := range cases {
		if got := NormalizeState(tc.raw); got != tc.want {
			t.Errorf("NormalizeState(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if StateOpen.IsTerminal() {
		t.Fatal("OPEN must not be terminal")
	}
	if !StateLost.IsTerminal() || !StateAbandoned.IsTerminal() {
		t.Fatal("LOST and ABANDONED must be terminal")
	}
}

func TestInferAppointmentKind(t *testing.T) {
	cases := []struct {
		title string
		want  AppointmentKind
	}{
		{"Presentacion de proyecto en oficina", KindPresentation},
		{"Office presentation", KindPresentation},
		{"Visita a proyecto", KindProjectVisit},
		{"Project visit - Tower B", KindProjectVisit},
		{"Follow up call", KindOther},
	}
	for _, tc := range cases {
		if got := InferAppointmentKind(tc.title); got != tc.want {
			t.Errorf("InferAppointmentKind(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
