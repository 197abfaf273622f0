package arch_test

import (
	"path/filepath"
	"testing"
)

// layers assigns each internal package to a numeric layer. A package at
// layer N may only import packages at layer N or below.
var layers = map[string]int{
	"config":    0,
	"logging":   0,
	"record":    0,
	"report":    0,
	"telemetry": 0,
	"watch":     0,

	"graph": 1,

	"metrics":  2,
	"pagerank": 2,

	"ui": 3,

	"pipeline": 4,
}

// TestDependencyLayering verifies that no internal package imports a package
// from a higher layer.
func TestDependencyLayering(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		importerLayer, ok := layers[pkg]
		if !ok {
			// Reported by TestNoUnknownPackages.
			continue
		}
		for _, imp := range importsOf(t, filepath.Join(dir, pkg)) {
			importedLayer, ok := layers[imp]
			if !ok || importerLayer >= importedLayer {
				continue
			}
			t.Errorf("layer violation: %s (layer %d) imports %s (layer %d)",
				pkg, importerLayer, imp, importedLayer)
		}
	}
}

// TestNoUnknownPackages forces new packages to be placed in the layer map.
func TestNoUnknownPackages(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		if _, ok := layers[pkg]; !ok {
			t.Errorf("package %s has no layer assignment; add it to the layers map", pkg)
		}
	}
}

// TestPipelineIsOnlyRunner keeps the scoring stages independent: only the
// pipeline package wires record, graph, pagerank, and metrics together.
func TestPipelineIsOnlyRunner(t *testing.T) {
	t.Parallel()

	dir := internalDirPath(t)
	for _, pkg := range internalPackages(t) {
		if pkg == "pipeline" {
			continue
		}
		for _, imp := range importsOf(t, filepath.Join(dir, pkg)) {
			if imp == "pipeline" {
				t.Errorf("%s imports pipeline; only cmd may", pkg)
			}
		}
	}
}
