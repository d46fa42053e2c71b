package cli

import (
	"os"
	"testing"
)

const shopAnalysis = `{
	"project_name": "shop",
	"packages": [{"id": "pkg:shop"}, {"id": "pkg:lib"}],
	"modules": [
		{"id": "mod:shop.orders", "imports": ["lib.util"], "classes": ["cls:mod:shop.orders:Order"]},
		{"id": "mod:lib.util"}
	],
	"classes": [{"id": "cls:mod:shop.orders:Order", "methods": ["meth:cls:mod:shop.orders:Order:total:3"]}],
	"methods": [{"id": "meth:cls:mod:shop.orders:Order:total:3"}],
	"cycles": [{"entities": ["mod:shop.orders", "mod:lib.util"], "severity": "high"}]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
