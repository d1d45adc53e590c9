package main

import (
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

const pythonModule = `"""Module docstring."""
import os, sys as system
from typing import (
    List,
    Optional,
)
from .models import User as U
from .helpers import *


def handler(request, *args, **kwargs):
    data = load_data(request)
    result = helper(data)  # format_result(data)
    os.path.join("a", "b()")
    return U(result)


class Service(Base):
    def run(self):
        import json
        return json.dumps(self.data)
`

func TestPythonParseImports(t *testing.T) {
	plugin := NewPythonPlugin()
	imports := plugin.ParseImports(pythonModule, "views.py")

	assert.DeepEqual(t, imports, []ImportStatement{
		{Source: "os", Imports: []string{"os"}, IsNamespace: true, StartLine: 1, EndLine: 1},
		{Source: "sys", Imports: []string{"system"}, IsNamespace: true, StartLine: 1, EndLine: 1},
		{Source: "typing", Imports: []string{"List", "Optional"}, StartLine: 2, EndLine: 5},
		{Source: ".models", Imports: []string{"U"}, StartLine: 6, EndLine: 6},
		{Source: ".helpers", Imports: []string{}, IsNamespace: true, StartLine: 7, EndLine: 7},
		{Source: "json", Imports: []string{"json"}, IsNamespace: true, StartLine: 19, EndLine: 19},
	})
}

func TestPythonParseImportsContinuation(t *testing.T) {
	plugin := NewPythonPlugin()
	imports := plugin.ParseImports("from a.b import c, \\\n    d as e\nimport x.y.z\n", "m.py")

	assert.Equal(t, len(imports), 2)
	assert.DeepEqual(t, imports[0].Imports, []string{"c", "e"})
	assert.Equal(t, imports[0].EndLine, 1)
	assert.DeepEqual(t, imports[1].Imports, []string{"x"})
}

func TestPythonFindUsedIdentifiers(t *testing.T) {
	plugin := NewPythonPlugin()

	assert.DeepEqual(t, usageNames(plugin.FindUsedIdentifiers(pythonModule, "views.py")),
		[]string{"load_data", "helper", "U"})
}

func TestPythonFindLocalDeclarations(t *testing.T) {
	plugin := NewPythonPlugin()
	code := `def outer(a, b=1, *args, c: int = 2, **kwargs):
    x, y = 1, 2
    total: int = 0
    for i, item in enumerate(items):
        pass
    with open(path) as fh:
        pass
    square = lambda n, m: n * m
    class Inner:
        pass
`
	declared := plugin.FindLocalDeclarations(code, "m.py")
	for _, name := range []string{"outer", "a", "b", "args", "c", "kwargs", "x", "y", "total", "i", "item", "fh", "square", "n", "m", "Inner"} {
		assert.Assert(t, declared[name], "expected %s to be declared", name)
	}
	assert.Assert(t, !declared["items"])
	assert.Assert(t, !declared["path"])
}

func TestPythonParseExports(t *testing.T) {
	plugin := NewPythonPlugin()

	t.Run("module level names", func(t *testing.T) {
		code := `CONSTANT = 1
_private = 2

def public_fn():
    nested = 3

async def fetch():
    pass

class Model:
    field = 1
`
		assert.DeepEqual(t, plugin.ParseExports(code, "/p/mod.py"), []ExportInfo{
			{Name: "CONSTANT", Source: "/p/mod.py"},
			{Name: "public_fn", Source: "/p/mod.py"},
			{Name: "fetch", Source: "/p/mod.py"},
			{Name: "Model", Source: "/p/mod.py"},
		})
	})

	t.Run("__all__ restricts exports", func(t *testing.T) {
		code := `__all__ = ["public_fn", "CONSTANT"]
CONSTANT = 1
OTHER = 2

def public_fn():
    pass
`
		assert.DeepEqual(t, plugin.ParseExports(code, "/p/mod.py"), []ExportInfo{
			{Name: "CONSTANT", Source: "/p/mod.py"},
			{Name: "public_fn", Source: "/p/mod.py"},
		})
	})
}

func TestPythonImportPlacement(t *testing.T) {
	plugin := NewPythonPlugin()

	assert.Equal(t, plugin.GetImportInsertPosition(pythonModule, "views.py"), 8)

	code := "#!/usr/bin/env python\n\"\"\"\nDocs.\n\"\"\"\n\nprint(slugify('x'))\n"
	line := plugin.GenerateImportStatement("slugify", ".utils", false)
	assert.Equal(t, line, "from .utils import slugify")
	assert.Equal(t, plugin.InsertImports(code, []string{line}, "m.py"),
		"#!/usr/bin/env python\n\"\"\"\nDocs.\n\"\"\"\n\nfrom .utils import slugify\nprint(slugify('x'))\n")
}

func TestPythonRenderSpecifier(t *testing.T) {
	plugin := NewPythonPlugin()
	from := filepath.Join("/p", "app", "views.py")

	tests := map[string]string{
		filepath.Join("/p", "app", "utils.py"):           ".utils",
		filepath.Join("/p", "pkg", "models.py"):          "..pkg.models",
		filepath.Join("/p", "app", "sub", "__init__.py"): ".sub",
		filepath.Join("/p", "app", "sub", "deep.py"):     ".sub.deep",
		filepath.Join("/p", "__init__.py"):               "..",
	}
	for to, expected := range tests {
		specifier, ok := plugin.RenderSpecifier(from, to)
		assert.Assert(t, ok)
		assert.Equal(t, specifier, expected, to)
	}
}

func TestMaskPythonCode(t *testing.T) {
	code := "a = 'x(' + \"\"\"\ncall()\n\"\"\"  # note()\nb()"
	masked := string(MaskPythonCode([]byte(code)))

	assert.Equal(t, len(masked), len(code))
	expected := "a =" + strings.Repeat(" ", 6) + "+" + strings.Repeat(" ", 4) + "\n" +
		strings.Repeat(" ", 6) + "\n" +
		strings.Repeat(" ", 13) + "\nb()"
	assert.Equal(t, masked, expected)
}

func TestPythonMemberCallsAcrossLines(t *testing.T) {
	plugin := NewPythonPlugin()
	code := "result = (client\n    .fetch(1)\n    .   decode())\nhelper(result)\n"

	assert.DeepEqual(t, usageNames(plugin.FindUsedIdentifiers(code, "m.py")), []string{"helper"})
}
