package services

import "testing"

func TestCalculateSimilarity_Identity(t *testing.T) {
	names := []string{"张三", "Zhang San", "李小明", "a"}
	for _, name := range names {
		if sim := CalculateSimilarity(name, name); sim != 1.0 {
			t.Errorf("Expected similarity 1.0 for %q, got %f", name, sim)
		}
	}
}

func TestCalculateSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"张三", "张四"},
		{"Zhang San", "Zhang Shan"},
		{"李明", "王李明"},
		{"abc", "xyz"},
	}
	for _, pair := range pairs {
		ab := CalculateSimilarity(pair[0], pair[1])
		ba := CalculateSimilarity(pair[1], pair[0])
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q/%q: %f vs %f", pair[0], pair[1], ab, ba)
		}
	}
}

func TestCalculateSimilarity_Bounds(t *testing.T) {
	if sim := CalculateSimilarity("张三", ""); sim != 0 {
		t.Errorf("Expected 0 against empty name, got %f", sim)
	}
	if sim := CalculateSimilarity("abcd", "wxyz"); sim != 0 {
		t.Errorf("Expected 0 for fully different names, got %f", sim)
	}
	if sim := CalculateSimilarity("张三", "张三丰"); sim <= 0 || sim >= 1 {
		t.Errorf("Expected partial similarity in (0,1), got %f", sim)
	}
}

func TestCalculateSimilarity_IgnoresSpacingAndCase(t *testing.T) {
	if sim := CalculateSimilarity("Zhang San", "zhangsan"); sim != 1.0 {
		t.Errorf("Expected 1.0 ignoring spacing and case, got %f", sim)
	}
}

func TestBestRosterMatch(t *testing.T) {
	roster := []string{"张三", "李四", "王五"}

	name, score := BestRosterMatch(roster, "张三")
	if name != "张三" || score != 1.0 {
		t.Errorf("Expected exact match 张三/1.0, got %s/%f", name, score)
	}

	name, score = BestRosterMatch(roster, "李 四")
	if name != "李四" || score != 1.0 {
		t.Errorf("Expected 李四/1.0 ignoring spacing, got %s/%f", name, score)
	}
}

func TestSplitSentences(t *testing.T) {
	text := "I like apples. Do you like them? 我也喜欢！Last one without terminator"
	sentences := SplitSentences(text)

	expected := []string{
		"I like apples.",
		"Do you like them?",
		"我也喜欢！",
		"Last one without terminator",
	}

	if len(sentences) != len(expected) {
		t.Fatalf("Expected %d sentences, got %d: %v", len(expected), len(sentences), sentences)
	}
	for i, want := range expected {
		if sentences[i] != want {
			t.Errorf("Sentence %d: expected %q, got %q", i, want, sentences[i])
		}
	}
}

func TestSplitSentences_Empty(t *testing.T) {
	if got := SplitSentences("   "); len(got) != 0 {
		t.Errorf("Expected no sentences from whitespace, got %v", got)
	}
}
