package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/subete/internal/domain/repo"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.summaryTool(),
		s.listLanguagesTool(),
		s.getLanguageTool(),
		s.getProgramTool(),
		s.listProjectsTool(),
		s.getProjectTool(),
		s.randomProgramTool(),
	)
}

func (s *Server) summaryTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("summary",
			mcplib.WithDescription("Get repo-wide statistics: program, language, tested and project counts"),
		),
		Handler: s.handleSummary,
	}
}

func (s *Server) listLanguagesTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("list_languages",
			mcplib.WithDescription("List the languages in the archive"),
			mcplib.WithString("letter",
				mcplib.Description("Only list languages under this archive letter"),
			),
		),
		Handler: s.handleListLanguages,
	}
}

func (s *Server) getLanguageTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_language",
			mcplib.WithDescription("Get a language and all of its programs"),
			mcplib.WithString("language",
				mcplib.Required(),
				mcplib.Description("Language key, e.g. python or c-sharp"),
			),
		),
		Handler: s.handleGetLanguage,
	}
}

func (s *Server) getProgramTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_program",
			mcplib.WithDescription("Get one program by language and project key"),
			mcplib.WithString("language",
				mcplib.Required(),
				mcplib.Description("Language key"),
			),
			mcplib.WithString("project",
				mcplib.Required(),
				mcplib.Description("Project key, e.g. hello-world"),
			),
			mcplib.WithBoolean("include_code",
				mcplib.Description("Include the program source"),
			),
		),
		Handler: s.handleGetProgram,
	}
}

func (s *Server) listProjectsTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("list_projects",
			mcplib.WithDescription("List all approved projects"),
		),
		Handler: s.handleListProjects,
	}
}

func (s *Server) getProjectTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_project",
			mcplib.WithDescription("Get a project and the languages implementing it"),
			mcplib.WithString("project",
				mcplib.Required(),
				mcplib.Description("Project key"),
			),
		),
		Handler: s.handleGetProject,
	}
}

func (s *Server) randomProgramTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("random_program",
			mcplib.WithDescription("Pick a random language, then a random program in it"),
		),
		Handler: s.handleRandomProgram,
	}
}

func (s *Server) handleSummary(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	return toolResultJSON(s.repo.Summarize())
}

func (s *Server) handleListLanguages(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	langs := s.repo.Languages()
	if v, ok := req.GetArguments()["letter"]; ok {
		letter, _ := v.(string)
		if err := repo.ValidateLetter(letter); err != nil {
			return mcplib.NewToolResultError(err.Error()), nil
		}
		langs = s.repo.LanguagesByLetter(letter)
	}
	views := make([]repo.LanguageView, 0, len(langs))
	for _, c := range langs {
		views = append(views, repo.NewLanguageView(c))
	}
	return toolResultJSON(views)
}

func (s *Server) handleGetLanguage(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	key, ok := req.GetArguments()["language"].(string)
	if !ok || key == "" {
		return mcplib.NewToolResultError("language is required"), nil
	}
	c, ok := s.repo.LanguageByKey(key)
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("language %q not found", key)), nil
	}
	return toolResultJSON(repo.LanguageDetail(c))
}

type programDetail struct {
	repo.ProgramView
	Code string `json:"code,omitempty"`
}

func (s *Server) handleGetProgram(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	args := req.GetArguments()
	langKey, _ := args["language"].(string)
	projKey, _ := args["project"].(string)
	if langKey == "" || projKey == "" {
		return mcplib.NewToolResultError("language and project are required"), nil
	}
	c, ok := s.repo.LanguageByKey(langKey)
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("language %q not found", langKey)), nil
	}
	p, ok := s.repo.Project(projKey)
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("project %q not found", projKey)), nil
	}
	prog, ok := c.Program(p.Name())
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("%s has no %s program", langKey, projKey)), nil
	}
	detail := programDetail{ProgramView: repo.NewProgramView(prog)}
	if withCode, _ := args["include_code"].(bool); withCode {
		code, err := prog.Code()
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to read program source", err), nil
		}
		detail.Code = code
	}
	return toolResultJSON(detail)
}

func (s *Server) handleListProjects(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	return toolResultJSON(s.projectViews())
}

type projectDetail struct {
	repo.ProjectView
	Languages []string `json:"languages"`
}

func (s *Server) handleGetProject(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	key, ok := req.GetArguments()["project"].(string)
	if !ok || key == "" {
		return mcplib.NewToolResultError("project is required"), nil
	}
	p, ok := s.repo.Project(key)
	if !ok {
		return mcplib.NewToolResultError(fmt.Sprintf("project %q not found", key)), nil
	}
	langs := []string{}
	for _, c := range s.repo.Languages() {
		if _, ok := c.Program(p.Name()); ok {
			langs = append(langs, c.Key())
		}
	}
	return toolResultJSON(projectDetail{ProjectView: repo.NewProjectView(p), Languages: langs})
}

func (s *Server) handleRandomProgram(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	s.rngMu.Lock()
	p, ok := s.repo.RandomProgram(s.rng)
	s.rngMu.Unlock()
	if !ok {
		return mcplib.NewToolResultError("repo has no programs"), nil
	}
	return toolResultJSON(repo.NewProgramView(p))
}

func (s *Server) projectViews() []repo.ProjectView {
	projects := s.repo.Projects()
	views := make([]repo.ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, repo.NewProjectView(p))
	}
	return views
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
