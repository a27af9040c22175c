package pii

import (
	"strings"
	"testing"
)

func TestCompanyDetection(t *testing.T) {
	m := NewMasker()
	text := "株式会社サンプル商事とトヨタ自動車株式会社が契約しました。"
	masked, mappings := m.Mask(text)

	if strings.Contains(masked, "サンプル商事") {
		t.Error("masked text should not contain original company name")
	}
	if strings.Contains(masked, "トヨタ自動車") {
		t.Error("masked text should not contain second original company name")
	}
	if len(mappings) != 2 {
		t.Errorf("mappings len = %d, want 2", len(mappings))
	}

	unmasked := Unmask(masked, mappings)
	if !strings.Contains(unmasked, "株式会社サンプル商事") {
		t.Error("unmask should restore first company name")
	}
	if !strings.Contains(unmasked, "トヨタ自動車株式会社") {
		t.Error("unmask should restore second company name")
	}
}

func TestPersonDetection(t *testing.T) {
	m := NewMasker()
	text := "山田 太郎さんと佐藤 花子さんが来ました。"
	masked, mappings := m.Mask(text)

	if strings.Contains(masked, "山田 太郎") || strings.Contains(masked, "佐藤 花子") {
		t.Error("masked text should not contain original names")
	}

	unmasked := Unmask(masked, mappings)
	if !strings.Contains(unmasked, "山田 太郎") || !strings.Contains(unmasked, "佐藤 花子") {
		t.Error("unmask should restore both names")
	}
}

func TestRoundtrip_AllCategories(t *testing.T) {
	m := NewMasker()
	original := "株式会社テストの山田 太郎（yamada@test.co.jp、03-1234-5678）は東京都渋谷区桜丘町1-1にいます。"
	masked, mappings := m.Mask(original)

	for _, real := range []string{"株式会社テスト", "山田 太郎", "yamada@test.co.jp", "03-1234-5678"} {
		if strings.Contains(masked, real) {
			t.Errorf("masked text still contains %q", real)
		}
	}

	restored := Unmask(masked, mappings)
	for _, real := range []string{"株式会社テスト", "山田 太郎", "yamada@test.co.jp", "03-1234-5678"} {
		if !strings.Contains(restored, real) {
			t.Errorf("restored text missing %q", real)
		}
	}
}

func TestEachCall_GeneratesDifferentFakes(t *testing.T) {
	m := NewMasker()
	masked1, _ := m.Mask("株式会社テスト")
	masked2, _ := m.Mask("株式会社テスト")
	if masked1 == masked2 {
		t.Error("expected different fake company names across calls (random generator)")
	}
}

func TestMask_EmptyText(t *testing.T) {
	m := NewMasker()
	masked, mappings := m.Mask("")
	if masked != "" {
		t.Errorf("masked = %q, want empty", masked)
	}
	if len(mappings) != 0 {
		t.Errorf("mappings should be empty for empty input")
	}
}

func TestMask_NoPII(t *testing.T) {
	m := NewMasker()
	text := "今日は天気がいいですね。"
	masked, mappings := m.Mask(text)
	if masked != text {
		t.Errorf("masked = %q, want unchanged %q", masked, text)
	}
	if len(mappings) != 0 {
		t.Errorf("mappings should be empty when no PII is present")
	}
}

func TestMaskWithSharedPool_ConcurrentSafe(t *testing.T) {
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			MaskWithSharedPool("株式会社テストの山田 太郎が来ました。")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}

