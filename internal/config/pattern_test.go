package config

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodePattern(t *testing.T, doc string) Pattern {
	t.Helper()
	var p Pattern
	require.NoError(t, yaml.Unmarshal([]byte(doc), &p))
	return p
}

func TestPatternUnmarshalScalar(t *testing.T) {
	p := decodePattern(t, `"*.go"`)
	assert.Equal(t, Pattern{Globs: []string{"*.go"}}, p)
	assert.False(t, p.IsRegex())
}

func TestPatternUnmarshalSequence(t *testing.T) {
	p := decodePattern(t, "- \"*.go\"\n- \"*.mod\"\n")
	assert.Equal(t, []string{"*.go", "*.mod"}, p.Globs)
}

func TestPatternUnmarshalRegex(t *testing.T) {
	p := decodePattern(t, "regex: \"^src/.*\\\\.go$\"\n")
	assert.True(t, p.IsRegex())
	assert.Equal(t, `^src/.*\.go$`, p.Regex)
}

func TestPatternUnmarshalRegexMissingKey(t *testing.T) {
	var p Pattern
	err := yaml.Unmarshal([]byte("foo: bar\n"), &p)
	assert.Error(t, err)
}

func compileRegex(pattern string) (interface{ MatchString(string) bool }, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re, nil
}

func TestCompileGlobMatch(t *testing.T) {
	c, err := Compile(Pattern{Globs: []string{"*.go", "*.mod"}}, compileRegex)
	require.NoError(t, err)
	assert.True(t, c.Match("main.go"))
	assert.True(t, c.Match("go.mod"))
	assert.False(t, c.Match("README.md"))
}

func TestCompileRegexMatch(t *testing.T) {
	c, err := Compile(Pattern{Regex: `^src/.*\.go$`}, compileRegex)
	require.NoError(t, err)
	assert.True(t, c.Match("src/main.go"))
	assert.False(t, c.Match("vendor/main.go"))
}

func TestCompileInvalidRegex(t *testing.T) {
	_, err := Compile(Pattern{Regex: "(["}, compileRegex)
	assert.Error(t, err)
}
