package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Media reader
		"Opening %s":            "%s を開いています",
		"Opened %s (%s %dx%d)":  "%s を開きました (%s %dx%d)",
		"Failed to open %s: %v": "%s を開けませんでした: %v",
		"Closed %s":             "%s を閉じました",
		"Video track %d: %s %dx%d %.2f fps, %d us":     "映像トラック %d: %s %dx%d %.2f fps, %d us",
		"Audio track present":                          "音声トラックがあります",
		"Output format changed: %dx%d color format %d": "出力フォーマットが変更されました: %dx%d カラーフォーマット %d",
		"End of stream, looping":                       "ストリーム終端に達しました。先頭に戻ります",
		"Seeked to %d us":                              "%d us へシークしました",
		"Failed to stop decoder: %v":                   "デコーダーを停止できませんでした: %v",
		"Failed to close extractor: %v":                "エクストラクターを閉じられませんでした: %v",

		// Decoder process
		"Starting ffmpeg for %s (%dx%d)": "%s 用に ffmpeg を起動中 (%dx%d)",
		"ffmpeg exited: %v":              "ffmpeg が終了しました: %v",
		"Dropped input for pts %d: %v":   "pts %d の入力を破棄しました: %v",

		// Remux
		"Probing %s":                     "%s を解析中",
		"Remuxing %s stream of %s to %s": "%[2]s の %[1]s ストリームを %[3]s に再多重化中",
		"Failed to remove %s: %v":        "%s を削除できませんでした: %v",

		// Feed
		"Feeding %d frames at %.1f fps": "%d フレームを %.1f fps で供給中",
		"Delivered frame %d (%d us)":    "フレーム %d を送出しました (%d us)",
		"Feed stopped after %d frames":  "%d フレームで供給を停止しました",

		// Sinks
		"Wrote %s": "%s を書き込みました",
	})
}
