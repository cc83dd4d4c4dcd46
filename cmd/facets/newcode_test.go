package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alfredjeanlab/issuefacets/internal/model"
	"github.com/alfredjeanlab/issuefacets/internal/newcode"
)

type recordingSaver struct {
	saved []model.NewCodePeriod
}

func (s *recordingSaver) SetNewCodePeriod(_ context.Context, p model.NewCodePeriod) (*model.NewCodePeriod, error) {
	s.saved = append(s.saved, p)
	return &p, nil
}

func TestSetNewCodePeriod(t *testing.T) {
	days := func(v string) model.NewCodePeriod {
		return model.NewCodePeriod{Type: model.NewCodeNumberOfDays, Value: v}
	}
	tests := []struct {
		name    string
		saved   model.NewCodePeriod
		args    []string
		wantErr string
		want    *model.NewCodePeriod
		output  string
	}{
		{name: "days", saved: model.DefaultNewCodePeriod(), args: []string{"days", "30"}, want: ptr(days("30")), output: "saved NUMBER_OF_DAYS: 30 days"},
		{name: "branch", saved: model.DefaultNewCodePeriod(), args: []string{"branch", "develop"},
			want: &model.NewCodePeriod{Type: model.NewCodeReferenceBranch, Value: "develop"}},
		{name: "previous", saved: days("30"), args: []string{"previous"}, want: ptr(model.DefaultNewCodePeriod())},
		{name: "unchanged", saved: days("30"), args: []string{"days", "30"}, output: "unchanged"},
		{name: "above limit", saved: model.DefaultNewCodePeriod(), args: []string{"days", "91"}, wantErr: "invalid number of days"},
		{name: "not a number", saved: model.DefaultNewCodePeriod(), args: []string{"days", "asdas"}, wantErr: "invalid number of days"},
		{name: "grandfathered", saved: days("91"), args: []string{"days", "91"}, output: "warning: 91 days"},
		{name: "missing value", saved: model.DefaultNewCodePeriod(), args: []string{"days"}, wantErr: "requires a value"},
		{name: "empty branch", saved: model.DefaultNewCodePeriod(), args: []string{"branch", " "}, wantErr: "cannot save"},
		{name: "unknown", saved: model.DefaultNewCodePeriod(), args: []string{"sprint"}, wantErr: "unknown new code definition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := newcode.NewForm(tt.saved, newcode.DefaultBounds)
			s := &recordingSaver{}
			var out bytes.Buffer

			err := fillForm(form, tt.args)
			if err == nil {
				err = saveForm(context.Background(), &out, form, s)
			}
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				if len(s.saved) != 0 {
					t.Errorf("nothing should be saved, got %v", s.saved)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == nil {
				if len(s.saved) != 0 {
					t.Errorf("nothing should be saved, got %v", s.saved)
				}
			} else if len(s.saved) != 1 || s.saved[0] != *tt.want {
				t.Errorf("saved %v, want %v", s.saved, *tt.want)
			}
			if tt.output != "" && !strings.Contains(out.String(), tt.output) {
				t.Errorf("output %q missing %q", out.String(), tt.output)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
