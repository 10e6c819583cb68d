package search

import (
	"time"

	"github.com/pders01/radar/internal/radar"
)

var jst = time.FixedZone("JST", 9*60*60)

func testSnapshot() *radar.Snapshot {
	return radar.NewSnapshot(time.Date(2024, 3, 3, 12, 0, 0, 0, jst), []radar.Event{
		{
			Title:       "ABC株式会社",
			Headline:    "ABC株式会社が資金調達を実施",
			PublishedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, jst),
			URL:         "https://example.jp/abc",
			Summary:     "シードラウンドで1億円を調達しました",
			SourceLabel: "🚀 資金調達(Google)",
			Company:     "ABC株式会社",
			Category:    radar.CategoryFinancing,
		},
		{
			Title:       "XYZ合同会社",
			Headline:    "XYZ合同会社が新サービスを開始",
			PublishedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, jst),
			URL:         "https://example.jp/xyz",
			Summary:     "物流向けの新しいプラットフォーム",
			SourceLabel: "💡 THE BRIDGE",
			Company:     "XYZ合同会社",
			Category:    radar.CategoryGeneral,
		},
	})
}
