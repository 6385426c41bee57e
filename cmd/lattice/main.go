// Package main provides the lattice CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/forkzero/lattice/internal/config"
	"github.com/forkzero/lattice/internal/export"
	"github.com/forkzero/lattice/internal/graph"
	"github.com/forkzero/lattice/internal/lint"
	"github.com/forkzero/lattice/internal/mcp"
	"github.com/forkzero/lattice/internal/node"
	"github.com/forkzero/lattice/internal/store"
	"github.com/forkzero/lattice/internal/ui"
	"github.com/forkzero/lattice/internal/update"
)

// Version is the current lattice CLI version
var Version = "0.4.0"

var rootCmd = &cobra.Command{
	Use:     "lattice",
	Short:   "Lattice - a typed knowledge graph for product decisions",
	Long:    `Lattice keeps research sources, strategic theses, requirements and implementations as version-bound YAML nodes under .lattice/, and detects when references drift behind the nodes they cite.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The workspace config may set a default output format; an
		// explicit --format always wins.
		if cmd.Flags().Changed("format") {
			return
		}
		if s, err := openStore(); err == nil {
			if cfg, err := config.Load(s.Root); err == nil && cfg.DefaultFormat != "" {
				outputFormat = cfg.DefaultFormat
			}
		}
	},
}

var (
	outputFormat string
)

// openStore locates the workspace starting from the current directory.
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return store.Open(cwd)
}

func buildIndex() (*store.Store, graph.Index, error) {
	s, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	idx, err := graph.BuildIndex(s)
	if err != nil {
		return nil, nil, err
	}
	return s, idx, nil
}

func jsonOutput() bool { return outputFormat == "json" }

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func emitCreated(n *node.Node, path string) error {
	if jsonOutput() {
		return emitJSON(map[string]string{"id": n.ID, "file": path})
	}
	fmt.Printf("%s %s %s\n", ui.Success.Render("created"), ui.ID.Render(n.ID), ui.Muted.Render(path))
	return nil
}

// --- init ---

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a lattice workspace in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		s, err := store.Init(cwd, initForce)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return emitJSON(map[string]string{"root": s.Root})
		}
		fmt.Printf("%s %s\n", ui.Success.Render("initialized"), s.Root)
		return nil
	},
}

// --- add ---

var (
	addBody       string
	addTags       []string
	addVisibility string

	addSourceURL         string
	addSourceReliability string
	addSourceCitations   []string

	addThesisCategory   string
	addThesisConfidence float64
	addThesisSupports   []string

	addReqPriority    string
	addReqCategory    string
	addReqAcceptance  []string
	addReqDerivesFrom []string
	addReqDependsOn   []string

	addImplLanguage  string
	addImplFiles     []string
	addImplTestCmd   string
	addImplSatisfies []string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a node",
}

func addOpts(s *store.Store, title string) store.AddOptions {
	return store.AddOptions{
		Title:      title,
		Body:       addBody,
		Tags:       addTags,
		Visibility: addVisibility,
		Author:     workspaceAuthor(s),
	}
}

// workspaceAuthor returns the author from .lattice/config.yaml, or
// empty so attribution falls back to the git identity.
func workspaceAuthor(s *store.Store) string {
	cfg, err := config.Load(s.Root)
	if err != nil {
		return ""
	}
	return cfg.Author
}

var addSourceCmd = &cobra.Command{
	Use:   "source <title>",
	Short: "Create a research source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.AddSource(addOpts(s, args[0]), node.SourceMeta{
			URL:         addSourceURL,
			Reliability: addSourceReliability,
			Citations:   addSourceCitations,
		})
		if err != nil {
			return err
		}
		return emitCreated(n, s.NodePath(n))
	},
}

var addThesisCmd = &cobra.Command{
	Use:   "thesis <title>",
	Short: "Create a strategic thesis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.AddThesis(addOpts(s, args[0]), node.ThesisMeta{
			Category:   addThesisCategory,
			Confidence: addThesisConfidence,
		}, addThesisSupports)
		if err != nil {
			return err
		}
		return emitCreated(n, s.NodePath(n))
	},
}

var addRequirementCmd = &cobra.Command{
	Use:     "requirement <title>",
	Aliases: []string{"req"},
	Short:   "Create a requirement",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		var prio node.Priority
		if addReqPriority != "" {
			var err error
			if prio, err = node.ParsePriority(addReqPriority); err != nil {
				return err
			}
		}
		n, err := s.AddRequirement(addOpts(s, args[0]), store.RequirementOptions{
			Priority:    prio,
			Category:    addReqCategory,
			Acceptance:  addReqAcceptance,
			DerivesFrom: addReqDerivesFrom,
			DependsOn:   addReqDependsOn,
		})
		if err != nil {
			return err
		}
		return emitCreated(n, s.NodePath(n))
	},
}

var addImplementationCmd = &cobra.Command{
	Use:     "implementation <title>",
	Aliases: []string{"impl"},
	Short:   "Create an implementation record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.AddImplementation(addOpts(s, args[0]), node.ImplementationMeta{
			Language:    addImplLanguage,
			Files:       addImplFiles,
			TestCommand: addImplTestCmd,
		}, addImplSatisfies)
		if err != nil {
			return err
		}
		return emitCreated(n, s.NodePath(n))
	},
}

// --- list / get / search ---

var listKind string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := graph.SearchFilter{}
		if listKind != "" {
			kind, err := node.ParseKind(listKind)
			if err != nil {
				return err
			}
			filter.Kind = kind
		}
		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		return renderNodes(graph.Search(idx, filter))
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.Get(args[0])
		if err != nil {
			return err
		}
		if jsonOutput() {
			return emitJSON(n)
		}
		data, err := yaml.Marshal(n)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	},
}

var (
	searchQuery      string
	searchKind       string
	searchPriority   string
	searchResolution string
	searchTag        string
	searchTags       []string
	searchCategory   string
	searchIDPrefix   string
	searchRelatedTo  string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search nodes by text and attributes",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := graph.SearchFilter{
			Query:      searchQuery,
			Resolution: searchResolution,
			Tag:        searchTag,
			Tags:       searchTags,
			Category:   searchCategory,
			IDPrefix:   searchIDPrefix,
			RelatedTo:  searchRelatedTo,
		}
		if searchKind != "" {
			kind, err := node.ParseKind(searchKind)
			if err != nil {
				return err
			}
			filter.Kind = kind
		}
		if searchPriority != "" {
			prio, err := node.ParsePriority(searchPriority)
			if err != nil {
				return err
			}
			filter.Priority = prio
		}
		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		return renderNodes(graph.Search(idx, filter))
	},
}

func renderNodes(nodes []*node.Node) error {
	if jsonOutput() {
		return emitJSON(nodes)
	}
	if len(nodes) == 0 {
		fmt.Println(ui.Muted.Render("no matching nodes"))
		return nil
	}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		state := ""
		if n.Resolution != nil {
			state = string(n.Resolution.State)
		}
		rows = append(rows, []string{n.ID, string(n.Type), n.Title, n.Version, string(n.Priority), state})
	}
	return ui.Table(os.Stdout, []string{"ID", "KIND", "TITLE", "VERSION", "PRIORITY", "RESOLUTION"}, rows)
}

// --- trace ---

var (
	traceDirection string
	traceDepth     int
)

var traceCmd = &cobra.Command{
	Use:   "trace <id>",
	Short: "Walk the graph from a node",
	Long: `Walk the graph outward from a node, following edges up to a depth.

Directions:
  down   follow the node's own references (default)
  up     find nodes that reference it
  both   walk in both directions`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir graph.Direction
		switch traceDirection {
		case "down", "":
			dir = graph.DirectionDownstream
		case "up":
			dir = graph.DirectionUpstream
		case "both":
			dir = graph.DirectionBoth
		default:
			return fmt.Errorf("invalid direction %q (want down, up or both)", traceDirection)
		}
		if traceDepth < 0 {
			return fmt.Errorf("depth must be non-negative")
		}

		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		visits := graph.Traverse(idx, args[0], dir, traceDepth)

		if jsonOutput() {
			type traceEntry struct {
				ID    string    `json:"id"`
				Kind  node.Kind `json:"kind"`
				Title string    `json:"title"`
				Depth int       `json:"depth"`
			}
			out := make([]traceEntry, 0, len(visits))
			for _, v := range visits {
				out = append(out, traceEntry{v.Node.ID, v.Node.Type, v.Node.Title, v.Depth})
			}
			return emitJSON(out)
		}

		if len(visits) == 0 {
			fmt.Println(ui.Muted.Render("node not found: " + args[0]))
			return nil
		}
		for _, v := range visits {
			indent := strings.Repeat("  ", v.Depth)
			fmt.Printf("%s%s %s %s\n",
				indent,
				ui.ID.Render(v.Node.ID),
				v.Node.Title,
				ui.Muted.Render("("+string(v.Node.Type)+", v"+v.Node.Version+")"))
			for _, e := range v.Edges {
				arrow := "→ " + e.Ref.Target
				if e.Incoming {
					arrow = "← " + e.From
				}
				fmt.Printf("%s  %s %s\n", indent, ui.Muted.Render(e.Relation), ui.Muted.Render(arrow))
			}
		}
		return nil
	},
}

// --- drift ---

var driftCheck bool

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Report version drift across edge bindings",
	Long: `Report edges whose version binding fell behind the target
node's current version. With --check the command exits 2 when any
drift exists, for use in CI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		reports := graph.DetectDrift(idx)

		if jsonOutput() {
			if reports == nil {
				reports = []graph.DriftReport{}
			}
			if err := emitJSON(reports); err != nil {
				return err
			}
		} else if len(reports) == 0 {
			fmt.Println(ui.Success.Render("no drift detected"))
		} else {
			for _, r := range reports {
				fmt.Printf("%s %s %s\n", ui.ID.Render(r.NodeID), r.Title, ui.Muted.Render("("+string(r.Kind)+", v"+r.Version+")"))
				for _, it := range r.Items {
					sev := ui.SeverityStyle(it.SeverityLabel).Render(it.SeverityLabel)
					fmt.Printf("  %s → %s: bound %s, current %s [%s]\n",
						it.Relation, it.TargetID, it.BoundVersion, it.CurrentVersion, sev)
				}
			}
			fmt.Printf("\n%d node(s) with drift\n", len(reports))
		}

		if driftCheck && len(reports) > 0 {
			os.Exit(2)
		}
		return nil
	},
}

// --- plan / resolve / verify / refine ---

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Order requirements by what can be worked now",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		plan := graph.GeneratePlan(idx)
		if jsonOutput() {
			return emitJSON(plan)
		}

		section := func(label string, entries []graph.PlanEntry, blocked bool) {
			if len(entries) == 0 {
				return
			}
			fmt.Println(ui.Title.Render(label))
			for _, e := range entries {
				line := fmt.Sprintf("  %s %s", ui.ID.Render(e.ID), e.Title)
				if e.Priority != "" {
					line += " " + ui.Muted.Render("["+string(e.Priority)+"]")
				}
				if blocked && len(e.BlockedBy) > 0 {
					line += " " + ui.Warning.Render("blocked by "+strings.Join(e.BlockedBy, ", "))
				}
				fmt.Println(line)
			}
			fmt.Println()
		}
		section("Ready", plan.Ready, false)
		section("Blocked", plan.Blocked, true)
		section("Done", plan.Done, false)
		return nil
	},
}

var resolveNote string

var resolveCmd = &cobra.Command{
	Use:   "resolve <id> <state>",
	Short: "Resolve a requirement (verified, blocked, deferred, wontfix)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := node.ParseResolution(args[1])
		if err != nil {
			return err
		}
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.Resolve(args[0], state, resolveNote, workspaceAuthor(s))
		if err != nil {
			return err
		}
		if jsonOutput() {
			return emitJSON(n)
		}
		fmt.Printf("%s %s %s\n", ui.Success.Render("resolved"), ui.ID.Render(n.ID), string(state))
		return nil
	},
}

var verifyRationale string

var verifyCmd = &cobra.Command{
	Use:   "verify <implementation-id> <requirement-id>",
	Short: "Record that an implementation satisfies a requirement's current version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.Verify(args[0], args[1], verifyRationale)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return emitJSON(n)
		}
		fmt.Printf("%s %s satisfies %s (now v%s)\n", ui.Success.Render("verified"), ui.ID.Render(n.ID), ui.ID.Render(args[1]), n.Version)
		return nil
	},
}

var (
	refineGap   string
	refineTitle string
	refineBody  string
	refineImpl  string
)

var refineCmd = &cobra.Command{
	Use:   "refine <requirement-id>",
	Short: "Record a gap in a requirement as a new sub-requirement",
	Long: `Record a gap discovered while implementing a requirement. A new
sub-requirement is created, the parent gains a dependency on it, and
the discovering implementation (if given) is linked to the gap.

Gap kinds: missing, underspecified, conflict, scope.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		n, err := s.Refine(args[0], refineImpl, refineGap, store.AddOptions{
			Title:  refineTitle,
			Body:   refineBody,
			Author: workspaceAuthor(s),
		})
		if err != nil {
			return err
		}
		return emitCreated(n, s.NodePath(n))
	},
}

// --- summary ---

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, idx, err := buildIndex()
		if err != nil {
			return err
		}
		sum := graph.Summarize(idx)
		if jsonOutput() {
			return emitJSON(sum)
		}

		fmt.Println(ui.Title.Render("Graph summary"))
		rows := [][]string{}
		for _, kind := range node.Kinds {
			rows = append(rows, []string{kind.Dir(), strconv.Itoa(sum.ByKind[kind])})
		}
		rows = append(rows, []string{"total", strconv.Itoa(sum.Total)})
		if err := ui.Table(os.Stdout, []string{"KIND", "COUNT"}, rows); err != nil {
			return err
		}

		fmt.Printf("\nunresolved requirements: %d\n", sum.Unresolved)
		for _, res := range []node.Resolution{node.ResolutionVerified, node.ResolutionBlocked, node.ResolutionDeferred, node.ResolutionWontfix} {
			if c := sum.ByResolution[res]; c > 0 {
				fmt.Printf("%s: %d\n", res, c)
			}
		}
		if len(sum.OrphanedReqs) > 0 {
			fmt.Printf("%s %s\n", ui.Warning.Render("requirements deriving from no thesis:"), strings.Join(sum.OrphanedReqs, ", "))
		}
		if len(sum.OrphanedTheses) > 0 {
			fmt.Printf("%s %s\n", ui.Warning.Render("theses with no support or references:"), strings.Join(sum.OrphanedTheses, ", "))
		}
		if sum.DriftCount > 0 {
			fmt.Printf("%s %d node(s) have drifted bindings (run 'lattice drift')\n", ui.Warning.Render("drift:"), sum.DriftCount)
		}
		return nil
	},
}

// --- lint ---

var (
	lintFix    bool
	lintStrict bool
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the workspace for structural problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		report, err := lint.Run(s)
		if err != nil {
			return err
		}

		if lintFix {
			fixed, err := lint.Apply(s, report)
			if err != nil {
				return err
			}
			if !jsonOutput() && fixed > 0 {
				fmt.Printf("%s %d issue(s)\n", ui.Success.Render("fixed"), fixed)
			}
			report, err = lint.Run(s)
			if err != nil {
				return err
			}
		}

		errs, warns, fixable := report.Counts()
		if jsonOutput() {
			if err := emitJSON(report); err != nil {
				return err
			}
		} else {
			for _, issue := range report.Issues {
				sev := ui.SeverityStyle(string(issue.Severity)).Render(string(issue.Severity))
				loc := issue.File
				if issue.NodeID != "" {
					loc = issue.NodeID
				}
				fmt.Printf("%s %s: %s\n", sev, loc, issue.Message)
			}
			fmt.Printf("\n%d error(s), %d warning(s), %d fixable\n", errs, warns, fixable)
			if fixable > 0 && !lintFix {
				fmt.Println(ui.Muted.Render("run 'lattice lint --fix' to repair fixable issues"))
			}
		}

		if report.HasErrors() || (lintStrict && warns > 0) {
			os.Exit(1)
		}
		return nil
	},
}

// --- export ---

var (
	exportFormat          string
	exportAudience        string
	exportTitle           string
	exportOutput          string
	exportIncludeInternal bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph as narrative markdown, JSON or an archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, idx, err := buildIndex()
		if err != nil {
			return err
		}
		cfg, err := config.Load(s.Root)
		if err != nil {
			return err
		}

		audienceName := exportAudience
		if audienceName == "" {
			audienceName = cfg.Audience
		}
		audience, err := export.ParseAudience(audienceName)
		if err != nil {
			return err
		}
		title := exportTitle
		if title == "" {
			title = cfg.ExportTitle
		}
		opts := export.Options{
			Title:           title,
			Audience:        audience,
			IncludeInternal: exportIncludeInternal,
		}

		var data []byte
		switch exportFormat {
		case "narrative", "":
			data = []byte(export.Narrative(idx, opts))
		case "json":
			if data, err = export.JSON(idx, opts); err != nil {
				return err
			}
			data = append(data, '\n')
		case "archive":
			if exportOutput == "" {
				return fmt.Errorf("--output is required for archive export")
			}
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			if err := export.Archive(s.Root, f); err != nil {
				return err
			}
			fmt.Printf("%s %s\n", ui.Success.Render("archived"), exportOutput)
			return nil
		default:
			return fmt.Errorf("unknown export format %q (want narrative, json or archive)", exportFormat)
		}

		if exportOutput == "" {
			os.Stdout.Write(data)
			return nil
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", exportOutput, err)
		}
		fmt.Printf("%s %s\n", ui.Success.Render("exported"), exportOutput)
		return nil
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the graph over the Model Context Protocol on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		server := mcp.NewServer(mcp.NewService(s), Version)
		return server.Serve(os.Stdin, os.Stdout)
	},
}

// --- update ---

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer lattice release",
	RunE: func(cmd *cobra.Command, args []string) error {
		release, err := update.Check(Version, true)
		if err != nil {
			return err
		}
		if release == nil {
			fmt.Printf("%s lattice %s is up to date\n", ui.Success.Render("ok"), Version)
			return nil
		}
		fmt.Printf("newer release available: %s (current %s)\n  %s\n", release.TagName, Version, release.HTMLURL)
		return nil
	},
}

// --- commands catalog ---

var commandsCmd = &cobra.Command{
	Use:    "commands",
	Short:  "Print the command catalog as JSON",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return emitJSON(catalog(rootCmd))
	},
}

type commandInfo struct {
	Name        string        `json:"name"`
	Summary     string        `json:"summary"`
	Usage       string        `json:"usage"`
	Flags       []flagInfo    `json:"flags,omitempty"`
	Subcommands []commandInfo `json:"subcommands,omitempty"`
}

type flagInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
}

func catalog(cmd *cobra.Command) []commandInfo {
	var out []commandInfo
	for _, c := range cmd.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		info := commandInfo{
			Name:    c.Name(),
			Summary: c.Short,
			Usage:   c.UseLine(),
		}
		c.Flags().VisitAll(func(f *pflag.Flag) {
			info.Flags = append(info.Flags, flagInfo{
				Name:        f.Name,
				Description: f.Usage,
				Default:     f.DefValue,
			})
		})
		info.Subcommands = catalog(c)
		out = append(out, info)
	}
	return out
}

// --- wiring ---

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text or json)")

	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize over an existing workspace")

	for _, c := range []*cobra.Command{addSourceCmd, addThesisCmd, addRequirementCmd, addImplementationCmd} {
		c.Flags().StringVar(&addBody, "body", "", "Node body text")
		c.Flags().StringSliceVar(&addTags, "tag", nil, "Tag (repeatable)")
		c.Flags().StringVar(&addVisibility, "visibility", "", "Visibility (set to 'internal' to hide from exports)")
	}
	addSourceCmd.Flags().StringVar(&addSourceURL, "url", "", "Source URL")
	addSourceCmd.Flags().StringVar(&addSourceReliability, "reliability", "", "Source reliability (high, medium, low)")
	addSourceCmd.Flags().StringSliceVar(&addSourceCitations, "citation", nil, "Citation (repeatable)")
	addThesisCmd.Flags().StringVar(&addThesisCategory, "category", "", "Thesis category")
	addThesisCmd.Flags().Float64Var(&addThesisConfidence, "confidence", 0, "Confidence between 0 and 1")
	addThesisCmd.Flags().StringSliceVar(&addThesisSupports, "supported-by", nil, "Supporting source id (repeatable)")
	addRequirementCmd.Flags().StringVar(&addReqPriority, "priority", "", "Priority (P0, P1, P2)")
	addRequirementCmd.Flags().StringVar(&addReqCategory, "category", "", "Requirement category")
	addRequirementCmd.Flags().StringSliceVar(&addReqAcceptance, "acceptance", nil, "Acceptance criterion (repeatable)")
	addRequirementCmd.Flags().StringSliceVar(&addReqDerivesFrom, "derives-from", nil, "Thesis id this derives from (repeatable)")
	addRequirementCmd.Flags().StringSliceVar(&addReqDependsOn, "depends-on", nil, "Requirement id this depends on (repeatable)")
	addImplementationCmd.Flags().StringVar(&addImplLanguage, "language", "", "Implementation language")
	addImplementationCmd.Flags().StringSliceVar(&addImplFiles, "file", nil, "Implementation file (repeatable)")
	addImplementationCmd.Flags().StringVar(&addImplTestCmd, "test-command", "", "Command that verifies the implementation")
	addImplementationCmd.Flags().StringSliceVar(&addImplSatisfies, "satisfies", nil, "Requirement id this satisfies (repeatable)")
	addCmd.AddCommand(addSourceCmd, addThesisCmd, addRequirementCmd, addImplementationCmd)

	listCmd.Flags().StringVar(&listKind, "kind", "", "Restrict to one kind")

	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Substring matched against id, title and body")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "Restrict to one kind")
	searchCmd.Flags().StringVar(&searchPriority, "priority", "", "Requirement priority")
	searchCmd.Flags().StringVar(&searchResolution, "resolution", "", "Resolution state, or 'unresolved'")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "Single tag to match")
	searchCmd.Flags().StringSliceVar(&searchTags, "tags", nil, "Tags that must all be present")
	searchCmd.Flags().StringVar(&searchCategory, "category", "", "Category to match")
	searchCmd.Flags().StringVar(&searchIDPrefix, "id-prefix", "", "Id prefix to match")
	searchCmd.Flags().StringVar(&searchRelatedTo, "related-to", "", "Only nodes adjacent to this id in the graph")

	traceCmd.Flags().StringVar(&traceDirection, "direction", "down", "Traversal direction (down, up, both)")
	traceCmd.Flags().IntVar(&traceDepth, "depth", 3, "Maximum hops from the start node")

	driftCmd.Flags().BoolVar(&driftCheck, "check", false, "Exit 2 when any drift exists")

	resolveCmd.Flags().StringVar(&resolveNote, "note", "", "Resolution note")
	verifyCmd.Flags().StringVar(&verifyRationale, "rationale", "", "Why the implementation satisfies the requirement")
	refineCmd.Flags().StringVar(&refineGap, "gap", "missing", "Gap kind (missing, underspecified, conflict, scope)")
	refineCmd.Flags().StringVar(&refineTitle, "title", "", "Title for the new sub-requirement")
	refineCmd.Flags().StringVar(&refineBody, "body", "", "Body for the new sub-requirement")
	refineCmd.Flags().StringVar(&refineImpl, "impl", "", "Implementation that discovered the gap")

	lintCmd.Flags().BoolVar(&lintFix, "fix", false, "Repair fixable issues")
	lintCmd.Flags().BoolVar(&lintStrict, "strict", false, "Treat warnings as failures")

	// Local --format shadows the persistent text/json flag; export's
	// formats are its own.
	exportCmd.Flags().StringVar(&exportFormat, "format", "narrative", "Export format (narrative, json, archive)")
	exportCmd.Flags().StringVar(&exportAudience, "audience", "", "Narrative audience (investor, contributor, overview)")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "Document title")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "File to write instead of stdout")
	exportCmd.Flags().BoolVar(&exportIncludeInternal, "include-internal", false, "Include nodes marked internal")

	rootCmd.AddCommand(initCmd, addCmd, listCmd, getCmd, searchCmd, traceCmd,
		driftCmd, planCmd, resolveCmd, verifyCmd, refineCmd, summaryCmd,
		lintCmd, exportCmd, mcpCmd, updateCmd, commandsCmd)
}

func main() {
	err := rootCmd.Execute()
	maybeNotifyUpdate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// maybeNotifyUpdate prints an upgrade notice after normal commands.
// Skipped for the mcp and update commands, whose output is consumed
// by machines or already about releases.
func maybeNotifyUpdate() {
	for _, arg := range os.Args[1:] {
		if arg == "mcp" || arg == "update" || arg == "commands" {
			return
		}
	}
	enabled := true
	if s, err := openStore(); err == nil {
		if cfg, err := config.Load(s.Root); err == nil {
			enabled = cfg.UpdateCheck
		}
	}
	update.MaybeNotify(Version, enabled)
}
