package parser

import (
	"reflect"
	"testing"
)

func TestParse_StripsPunctuation(t *testing.T) {
	r := Parse("Buy milk #shopping #urgent!")
	if r.Description != "Buy milk" {
		t.Errorf("description = %q, want %q", r.Description, "Buy milk")
	}
	if !reflect.DeepEqual(r.Tags, []string{"shopping", "urgent"}) {
		t.Errorf("tags = %v, want [shopping urgent]", r.Tags)
	}
}

func TestParse_TagInTheMiddle(t *testing.T) {
	r := Parse("  call #mom about dinner  ")
	if r.Description != "call about dinner" {
		t.Errorf("description = %q", r.Description)
	}
	if !reflect.DeepEqual(r.Tags, []string{"mom"}) {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestParse_KeepsLineBreaks(t *testing.T) {
	r := Parse("first line\nsecond #work line")
	if r.Description != "first line\nsecond line" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_UnicodeWhitespaceSeparatesTags(t *testing.T) {
	cases := []struct {
		raw      string
		wantDesc string
		wantTags []string
	}{
		{"note\u00a0#tag", "note", []string{"tag"}},
		{"note\v#tag", "note", []string{"tag"}},
		{"note\u2003#tag end", "note end", []string{"tag"}},
		{"note\u0085#tag", "note", []string{"tag"}},
		{"#tag\u00a0next", "next", []string{"tag"}},
		{"a\u00a0b #x", "a\u00a0b", []string{"x"}},
	}
	for _, tc := range cases {
		r := Parse(tc.raw)
		if r.Description != tc.wantDesc {
			t.Errorf("Parse(%q) description = %q, want %q", tc.raw, r.Description, tc.wantDesc)
		}
		if !reflect.DeepEqual(r.Tags, tc.wantTags) {
			t.Errorf("Parse(%q) tags = %v, want %v", tc.raw, r.Tags, tc.wantTags)
		}
	}
}

func TestParse_Cyrillic(t *testing.T) {
	r := Parse("Купить #молоко, #ёлка #Дом42")
	want := []string{"молоко", "ёлка", "Дом42"}
	if !reflect.DeepEqual(r.Tags, want) {
		t.Errorf("tags = %v, want %v", r.Tags, want)
	}
	if r.Description != "Купить" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_DuplicatesKept(t *testing.T) {
	r := Parse("#a text #a")
	if !reflect.DeepEqual(r.Tags, []string{"a", "a"}) {
		t.Errorf("tags = %v, want [a a]", r.Tags)
	}
	if r.Description != "text" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_EmptyTagDropped(t *testing.T) {
	r := Parse("lonely # marker #!? #ok")
	if !reflect.DeepEqual(r.Tags, []string{"ok"}) {
		t.Errorf("tags = %v, want [ok]", r.Tags)
	}
	if r.Description != "lonely marker" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_NoTags(t *testing.T) {
	r := Parse("plain text")
	if r.Tags == nil || len(r.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil slice", r.Tags)
	}
	if r.Description != "plain text" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_InnerHashNotATag(t *testing.T) {
	r := Parse("issue a#b and C#")
	if len(r.Tags) != 0 {
		t.Errorf("tags = %v, want none", r.Tags)
	}
	if r.Description != "issue ab and C" {
		t.Errorf("description = %q", r.Description)
	}
}

func TestParse_OnlyTags(t *testing.T) {
	r := Parse("#todo #later")
	if r.Description != "" {
		t.Errorf("description = %q, want empty", r.Description)
	}
	if !reflect.DeepEqual(r.Tags, []string{"todo", "later"}) {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestEditableDescription_RoundTrip(t *testing.T) {
	r := Parse("Buy milk #shopping #urgent!")
	got := EditableDescription(r.Description, r.Tags)
	if got != "Buy milk #shopping #urgent" {
		t.Errorf("editable = %q", got)
	}
	again := Parse(got)
	if again.Description != r.Description || !reflect.DeepEqual(again.Tags, r.Tags) {
		t.Errorf("reparse = %+v, want %+v", again, r)
	}
}

func TestEditableDescription_NoTags(t *testing.T) {
	if got := EditableDescription("keep   spacing", nil); got != "keep   spacing" {
		t.Errorf("got %q", got)
	}
}
