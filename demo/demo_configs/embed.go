package demo_configs

import (
	"embed"
)

// FS 內嵌預設的活動設定與 NDC 分類表。
//
//go:embed *.yaml *.json
var FS embed.FS
