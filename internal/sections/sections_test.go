package sections

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		text string
		want Heading
		ok   bool
	}{
		{"【발명의 설명】", Heading{Tag: TagDescription, Tier: 1}, true},
		{"  [발명의 설명] ", Heading{Tag: TagDescription, Tier: 1}, true},
		{"【발명의명칭】", Heading{Tag: TagInventionTitle, Tier: 2}, true},
		{"【해결하고자 하는 과제】", Heading{Tag: TagTechProblem, Tier: 3}, true},
		{"【청구항 12】", Heading{Tag: TagClaim, Tier: 2, Num: "12"}, true},
		{"【도 3a】", Heading{Tag: TagFigure, Tier: 2, Num: "3a"}, true},
		{"【도면】", Heading{Tag: TagDrawings, Tier: 1}, true},
		{"【0001】", Heading{}, false},
		{"도 1", Heading{}, false},
		{"요약", Heading{}, false},
		{"청구범위", Heading{}, false},
		{"【】", Heading{}, false},
		{"본 발명은 커버(10)에 관한 것이다.", Heading{}, false},
		{"", Heading{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Match(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected %+v/%v, got %+v/%v", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestTitle_RoundTrip(t *testing.T) {
	for _, r := range Rules {
		title, ok := Title(r.Tag, "")
		if !ok {
			t.Fatalf("expected title for %s", r.Tag)
		}
		h, ok := Match(title)
		if !ok || h.Tag != r.Tag || h.Tier != r.Tier {
			t.Errorf("%s: expected %s tier %d, got %+v", title, r.Tag, r.Tier, h)
		}
	}
	title, _ := Title(TagClaim, "7")
	if h, _ := Match(title); h.Tag != TagClaim || h.Num != "7" {
		t.Errorf("expected claim 7, got %+v", h)
	}
}

func TestLooksLikeHeading(t *testing.T) {
	if !LooksLikeHeading("【발명의 배경】") {
		t.Error("expected bracketed title to look like a heading")
	}
	if LooksLikeHeading("【0012】") {
		t.Error("expected paragraph number not to look like a heading")
	}
	if LooksLikeHeading("【0012】 본문") {
		t.Error("expected numbered paragraph not to look like a heading")
	}
}

func TestPolicies(t *testing.T) {
	if !InsertsNumbers(TagDescription) || InsertsNumbers(TagClaims) {
		t.Error("unexpected numbering policy")
	}
	if !ForbidsNumbers(TagInventionTitle) || ForbidsNumbers(TagTechnicalField) {
		t.Error("unexpected forbidden policy")
	}
	if !SplitsOnBreak(TagClaim) || SplitsOnBreak(TagDescription) {
		t.Error("unexpected split policy")
	}
}

func TestExtract(t *testing.T) {
	got := Extract("10: 무시, 상부 커버(10), 스프링 (20a); 봉(2)\n커버(10)")
	want := []Element{
		{"상부 커버", "10"},
		{"스프링", "20a"},
		{"봉", "2"},
		{"커버", "10"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExtract_AfterPreviousElement(t *testing.T) {
	tests := []struct {
		text string
		want []Element
	}{
		{"커버(10)와 스프링(30)", []Element{{"커버", "10"}, {"스프링", "30"}}},
		{"커버(10)를 지지하는 스프링(30)", []Element{{"커버", "10"}, {"지지하는 스프링", "30"}}},
		{"커버(10) 및 상부 스프링(30)", []Element{{"커버", "10"}, {"상부 스프링", "30"}}},
		{"커버(10) 스프링(30)", []Element{{"커버", "10"}, {"스프링", "30"}}},
		{"커버(10)봉(2)", []Element{{"커버", "10"}, {"봉", "2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMerge_LongestCommonSuffix(t *testing.T) {
	res := Merge([]Element{{"상부 커버", "10"}, {"커버", "10"}})
	if len(res.Elements) != 1 || res.Elements[0].String() != "커버(10)" {
		t.Errorf("expected 커버(10), got %v", res.Elements)
	}
	if len(res.Empty) != 0 {
		t.Errorf("expected no empty merges, got %v", res.Empty)
	}
}

func TestMerge_EmptyLabelKeepsLongest(t *testing.T) {
	res := Merge([]Element{{"커버", "3"}, {"스프링", "3"}})
	if res.Elements[0].Label != "스프링" {
		t.Errorf("expected longest variant kept, got %q", res.Elements[0].Label)
	}
	if !reflect.DeepEqual(res.Empty, []string{"3"}) {
		t.Errorf("expected empty merge reported for 3, got %v", res.Empty)
	}
}

func TestMerge_Order(t *testing.T) {
	res := Merge([]Element{{"스프링", "1"}, {"봉", "2"}, {"커버", "1a"}})
	var got []string
	for _, e := range res.Elements {
		got = append(got, e.Number)
	}
	want := []string{"1", "1a", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestNumbers(t *testing.T) {
	got := Numbers("커버(10)와 스프링(20)이 커버(10)를 지지한다")
	if !reflect.DeepEqual(got, []string{"10", "20"}) {
		t.Errorf("expected [10 20], got %v", got)
	}
}
