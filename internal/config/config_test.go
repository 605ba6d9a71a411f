package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicHook(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - gofmt:
        glob: "*.go"
        check: gofmt -l .
        fix: gofmt -w .
    - govet:
        glob: "*.go"
        check: go vet ./...
        depends: [gofmt]
`
	hooks, err := Parse([]byte(doc))
	require.NoError(t, err)
	hook, ok := hooks["pre-commit"]
	require.True(t, ok)
	require.Len(t, hook.Steps, 2)

	gofmt, ok := hook.Step("gofmt")
	require.True(t, ok)
	assert.Equal(t, "gofmt -l .", gofmt.Check.Default)

	govet, ok := hook.Step("govet")
	require.True(t, ok)
	assert.Equal(t, []string{"gofmt"}, govet.Depends)
}

func TestParseDuplicateStepNameIsAggregated(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - gofmt:
        check: gofmt -l .
    - gofmt:
        check: gofmt -l .
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	loadErr, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Contains(t, loadErr.Error(), "duplicate step name")
}

func TestParseInvalidStepIsAggregatedNotFatal(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - bad:
        interactive: true
        stdin: "-"
    - good:
        check: echo ok
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	loadErr, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Contains(t, loadErr.Error(), "mutually exclusive")
}

func TestParseCyclicDependencyDetected(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - a:
        check: echo a
        depends: [b]
    - b:
        check: echo b
        depends: [a]
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	loadErr, ok := err.(*LoadError)
	require.True(t, ok)
	assert.Contains(t, loadErr.Error(), "dependency cycle")
}

func TestParseSelfDependencyDetected(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - a:
        check: echo a
        depends: [a]
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseAcyclicDiamondDependencyOK(t *testing.T) {
	doc := `
hooks:
  pre-commit:
    - a:
        check: echo a
    - b:
        check: echo b
        depends: [a]
    - c:
        check: echo c
        depends: [a]
    - d:
        check: echo d
        depends: [b, c]
`
	hooks, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Len(t, hooks["pre-commit"].Steps, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/hk.yaml")
	assert.Error(t, err)
}
