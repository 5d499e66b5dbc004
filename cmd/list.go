package cmd

import (
	"sort"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/loonghao/vx/pkg/config"
	"github.com/loonghao/vx/pkg/registry"
	"github.com/loonghao/vx/pkg/types"
	"github.com/spf13/cobra"
)

// DependencyInfo represents information about a single dependency
type DependencyInfo struct {
	Name      string `json:"name" pretty:"label=Dependency"`
	Aliases   string `json:"aliases" pretty:"label=Aliases"`
	Platforms string `json:"platforms" pretty:"label=Platforms"`
	Checksum  string `json:"checksum" pretty:"label=Checksum"`
	Source    string `json:"source" pretty:"label=Source"`
}

// DependencyList represents a list of dependencies for table display
type DependencyList struct {
	Dependencies []DependencyInfo `json:"dependencies" pretty:"table"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available dependencies",
	Long:  `List all available dependencies that can be installed.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// extractPlatforms converts asset patterns to a comma-separated list of supported platforms
func extractPlatforms(pkg types.RuntimeSpec) string {
	platforms := make(map[string]bool)

	// Extract from asset patterns
	for pattern := range pkg.AssetPatterns {
		// Handle patterns like "linux-*", "darwin-*,windows-*"
		if strings.Contains(pattern, "*") {
			// Extract base patterns
			parts := strings.Split(pattern, ",")
			for _, part := range parts {
				part = strings.TrimSpace(part)
				if strings.HasSuffix(part, "-*") {
					// Add common architectures for wildcard patterns
					base := strings.TrimSuffix(part, "-*")
					if base == "linux" || base == "darwin" || base == "windows" {
						platforms[base+"-amd64"] = true
						platforms[base+"-arm64"] = true
					}
				} else {
					platforms[part] = true
				}
			}
		} else {
			platforms[strings.TrimSpace(pattern)] = true
		}
	}

	// Handle special managers
	if len(platforms) == 0 {
		switch pkg.Manager {
		case "maven":
			platforms["java"] = true
		case "direct":
			platforms["direct-url"] = true
		default:
			platforms["unknown"] = true
		}
	}

	// Convert to sorted slice
	var platformList []string
	for platform := range platforms {
		platformList = append(platformList, platform)
	}
	sort.Strings(platformList)

	if len(platformList) == 0 {
		return "unknown"
	}
	return strings.Join(platformList, ", ")
}

// hasChecksum determines if a dependency has checksum verification configured
func hasChecksum(pkg types.RuntimeSpec) string {
	if pkg.ChecksumFile != "" || pkg.ChecksumExpr != "" {
		return "Yes"
	}
	return "No"
}

// runtimeAliases looks up the aliases a provider registered for name,
// without materializing the runtime itself.
func runtimeAliases(reg *registry.Registry, name string) string {
	for _, p := range reg.Providers() {
		if p.Name == name && len(p.Aliases) > 0 {
			return strings.Join(p.Aliases, ", ")
		}
	}
	return ""
}

// getSource determines the source of a dependency (simplified for now)
func getSource(name string) string {
	// For now, we'll assume all dependencies come from the registry
	// In the future, this could check vx.yaml and vx-lock.yaml
	return "registry"
}

func runList(cmd *cobra.Command, args []string) error {
	// Get all dependencies from the merged registry
	depsConfig := config.GetGlobalRegistry()
	providers := registry.GetGlobalRegistry()

	// Collect dependency information
	var dependencies []DependencyInfo
	for name, pkg := range depsConfig.Registry {
		dependencies = append(dependencies, DependencyInfo{
			Name:      name,
			Aliases:   runtimeAliases(providers, name),
			Platforms: extractPlatforms(pkg),
			Checksum:  hasChecksum(pkg),
			Source:    getSource(name),
		})
	}

	// Sort alphabetically by name
	sort.Slice(dependencies, func(i, j int) bool {
		return dependencies[i].Name < dependencies[j].Name
	})

	// Create dependency list structure
	dependencyList := DependencyList{
		Dependencies: dependencies,
	}

	// Format and display using clicky
	result, err := clicky.Format(dependencyList)
	if err != nil {
		return err
	}

	cmd.Println(result)
	return nil
}
