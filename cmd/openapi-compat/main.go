// Package main checks swagger.yaml revisions for breaking changes against the client contract.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// contractOperations are the endpoints the web and mobile clients call.
var contractOperations = []string{
	"POST /signup/",
	"POST /login/",
	"POST /logout/",
	"GET /session/",
	"GET /profile/",
	"PATCH /profile/",
	"GET /posts/",
	"POST /posts/",
	"GET /posts/{id}/",
	"PUT /posts/{id}/",
	"PATCH /posts/{id}/",
	"DELETE /posts/{id}/",
	"GET /users/{id}/posts/",
}

type operation struct {
	Responses map[string]struct{}
}

type parsedSpec struct {
	BasePath string
	Paths    map[string]map[string]operation
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("openapi-compat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	basePath := fs.String("base", "", "base OpenAPI swagger.yaml path")
	revisionPath := fs.String("revision", "", "revision OpenAPI swagger.yaml path")
	contract := fs.Bool("contract", true, "require the client contract operations in the revision")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(stderr, "usage: openapi-compat [-base <path>] -revision <path> [-contract=false]")
		return 2
	}

	revisionSpec, err := loadSpec(*revisionPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load revision spec: %v\n", err)
		return 1
	}

	var issues []string
	if strings.TrimSpace(*basePath) != "" {
		baseSpec, err := loadSpec(*basePath)
		if err != nil {
			fmt.Fprintf(stderr, "failed to load base spec: %v\n", err)
			return 1
		}
		issues = append(issues, compare(baseSpec, revisionSpec)...)
	}
	if *contract {
		issues = append(issues, missingContract(revisionSpec, contractOperations)...)
	}

	if len(issues) > 0 {
		sort.Strings(issues)
		fmt.Fprintln(stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(stderr, "- %s\n", issue)
		}
		return 1
	}

	fmt.Fprintln(stdout, "openapi compatibility check passed")
	return 0
}

func loadSpec(path string) (parsedSpec, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return parsedSpec{}, err
	}
	return parseSpec(raw)
}

func parseSpec(raw []byte) (parsedSpec, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return parsedSpec{}, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return parsedSpec{}, errors.New("missing top-level paths field")
	}

	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return parsedSpec{}, errors.New("paths is not an object")
	}

	spec := parsedSpec{Paths: make(map[string]map[string]operation)}
	if bp, ok := doc["basePath"].(string); ok {
		spec.BasePath = bp
	}

	for pathKey, pathEntry := range pathsMap {
		pathOpsRaw, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]operation)
		for methodKey, methodEntry := range pathOpsRaw {
			methodLower := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[methodLower]; !supported {
				continue
			}

			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}

			responseSet := make(map[string]struct{})
			if responsesRaw, exists := methodMap["responses"]; exists {
				if responsesMap, ok := toMap(responsesRaw); ok {
					for code := range responsesMap {
						normalized := strings.ToLower(strings.TrimSpace(code))
						if normalized != "" {
							responseSet[normalized] = struct{}{}
						}
					}
				}
			}

			ops[methodLower] = operation{Responses: responseSet}
		}

		if len(ops) > 0 {
			spec.Paths[pathKey] = ops
		}
	}

	return spec, nil
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func compare(base, revision parsedSpec) []string {
	var issues []string

	if base.BasePath != revision.BasePath {
		issues = append(issues, fmt.Sprintf("changed basePath: %q -> %q", base.BasePath, revision.BasePath))
	}

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for responseCode := range baseOp.Responses {
				if _, ok := revOp.Responses[responseCode]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(responseCode),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// missingContract lists contract operations ("METHOD /path") absent from spec.
func missingContract(spec parsedSpec, required []string) []string {
	var issues []string
	for _, op := range required {
		method, path, ok := strings.Cut(op, " ")
		if !ok {
			continue
		}
		ops, exists := spec.Paths[path]
		if !exists {
			issues = append(issues, fmt.Sprintf("missing contract operation: %s", op))
			continue
		}
		if _, exists := ops[strings.ToLower(method)]; !exists {
			issues = append(issues, fmt.Sprintf("missing contract operation: %s", op))
		}
	}
	return issues
}
