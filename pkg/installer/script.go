package installer

import (
	"bytes"
	"path/filepath"
	"strings"
)

// interpreters maps recognized script extensions to the interpreter
// used when a shebang has to be added.
var interpreters = map[string]string{
	".py":   "python3",
	".pyw":  "python3",
	".sh":   "sh",
	".bash": "bash",
	".rb":   "ruby",
	".pl":   "perl",
}

const envShebangPrefix = "#!/usr/bin/env "

// isScript reports whether the file looks like an interpreted script,
// either by a recognized extension or by a shebang line.
func isScript(name string, content []byte) bool {
	if _, ok := interpreters[strings.ToLower(filepath.Ext(name))]; ok {
		return true
	}
	return bytes.HasPrefix(content, []byte("#!"))
}

// stripExtension removes a recognized script extension from name.
// Unrecognized extensions are kept; "app.v2" stays "app.v2".
func stripExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := interpreters[ext]; ok {
		return name[:len(name)-len(ext)]
	}
	return name
}

// normalizeShebang ensures the script's interpreter line uses an
// absolute path. A relative interpreter ("#!python3") is rewritten via
// /usr/bin/env; a missing shebang on a recognized extension gets one
// added. Content with an absolute interpreter is returned unchanged.
func normalizeShebang(name string, content []byte) []byte {
	if !bytes.HasPrefix(content, []byte("#!")) {
		interp, ok := interpreters[strings.ToLower(filepath.Ext(name))]
		if !ok {
			return content
		}
		return append([]byte(envShebangPrefix+interp+"\n"), content...)
	}

	nl := bytes.IndexByte(content, '\n')
	var first, rest []byte
	if nl < 0 {
		first, rest = content, nil
	} else {
		first, rest = content[:nl], content[nl:]
	}

	// "#!/usr/bin/python3" or "#!/usr/bin/env python3" are already
	// absolute; "#!python3" is not.
	line := strings.TrimSpace(string(first[2:]))
	if line == "" || strings.HasPrefix(line, "/") {
		return content
	}

	// Keep the whole line so interpreter arguments ("#!python3 -u")
	// survive the rewrite.
	rewritten := []byte(envShebangPrefix + line)
	return append(rewritten, rest...)
}
