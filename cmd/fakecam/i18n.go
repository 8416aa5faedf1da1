// Package main provides localization for the fakecam CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Replace a camera feed with frames decoded from a video or photo.": "動画または写真からデコードしたフレームでカメラ映像を置き換えます。",

		// Commands
		"Show what a media file looks like as a camera source.": "メディアファイルをカメラ入力として見た情報を表示",
		"Pull frames through the camera feed and save them.":    "カメラフィードからフレームを取得して保存",
		"Render the colour-bar test card to a BMP file.":        "カラーバーのテストカードをBMPファイルに描画",
		"Show version information.":                             "バージョン情報を表示",
		"fakecam version %s":                                    "fakecam バージョン %s",

		// Global flags
		"YAML configuration file.": "YAML設定ファイル。",
		"Path to ffmpeg executable (falls back to FFMPEG_PATH env, then PATH).": "ffmpeg実行ファイルのパス（未指定時は環境変数FFMPEG_PATH、次にPATH）。",
		"Time limit for probing and remuxing one file (0 = none).":              "1ファイルの解析と再多重化の制限時間（0 = 無制限）。",
		"Log level (debug, info, warn, error).":                                 "ログレベル（debug, info, warn, error）。",
		"Log format (console, text, json).":                                     "ログ形式（console, text, json）。",
		"Suppress all log output.":                                              "全てのログ出力を抑制。",

		// Grab flags
		"Media file (default: configured video, then photo).":  "メディアファイル（既定: 設定の動画、次に写真）。",
		"Directory for frame files (omit to discard frames).":  "フレームファイルの出力先（省略時は破棄）。",
		"Number of frames to grab (0 = until interrupted).":    "取得するフレーム数（0 = 中断まで）。",
		"File name prefix for frame files.":                    "フレームファイル名の接頭辞。",
		"Output frame width.":                                  "出力フレームの幅。",
		"Output frame height.":                                 "出力フレームの高さ。",
		"Output pixel format (nv21, yuv420p, rgb24, rgba32).":  "出力ピクセル形式（nv21, yuv420p, rgb24, rgba32）。",
		"Clockwise rotation in degrees (0, 90, 180, 270).":     "時計回りの回転角度（0, 90, 180, 270）。",
		"Apply the front camera transform.":                    "フロントカメラ変換を適用。",
		"Mirror frames horizontally.":                          "フレームを左右反転。",
		"Stretch to the output size instead of letterboxing.":  "レターボックスではなく出力サイズに引き伸ばす。",
		"Delivery rate (0 = source rate, negative = unpaced).": "送出レート（0 = 入力のレート、負数 = 制限なし）。",
		"Output execution summary to file (Markdown format).":  "実行サマリーをファイルに出力（Markdown形式）。",
		"Print the summary as Markdown.":                       "サマリーをMarkdownで表示。",

		// Testcard flags
		"Output BMP file path.":      "出力BMPファイルパス。",
		"Card width.":                "カードの幅。",
		"Card height.":               "カードの高さ。",
		"Text drawn under the bars.": "バーの下に描く文字。",

		// Runtime messages
		"Interrupted, shutting down...":            "中断されました。シャットダウン中...",
		"No media configured, using the test card": "メディアが設定されていないため、テストカードを使用します",
		"No media file given and none configured":  "メディアファイルが指定されておらず、設定にもありません",
		"Grabbed %d frames in %s":                  "%[2]s で %[1]d フレームを取得しました",
		"Summary saved to %s":                      "サマリーを %s に保存しました",
		"Failed to write summary: %s":              "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Session Summary": "セッション概要",
		"Generated at":    "生成日時",
		"Item":            "項目",
		"Value":           "値",
		"Source":          "入力",
		"Output":          "出力",
		"Run":             "実行結果",
		"Files":           "ファイル",
		"File":            "ファイル",
		"Kind":            "種類",
		"Resolution":      "解像度",
		"Pixel Format":    "ピクセル形式",
		"Frame Rate":      "フレームレート",
		"Duration":        "長さ",
		"Audio":           "音声",
		"Source size":     "入力と同じ",
		"Keep Aspect":     "アスペクト比維持",
		"Front Camera":    "フロントカメラ",
		"Rotation":        "回転",
		"Mirror":          "左右反転",
		"Stages":          "処理段",
		"Frames":          "フレーム数",
		"Elapsed":         "所要時間",
		"Achieved Rate":   "実効レート",
		"Files Written":   "書き出しファイル数",
		"Unknown":         "不明",
		"Yes":             "はい",
		"No":              "いいえ",
	})
}
