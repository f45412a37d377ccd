package github

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/etesdev/etes/pkg/types"
)

//go:embed query.graphql
var queryTemplate string

const graphqlURL = "https://api.github.com/graphql"

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// fetch posts the repository query to the GraphQL endpoint and maps the
// response onto the client-facing metadata shape.
func (m *Manager) fetch(ctx context.Context) (types.GitHubState, error) {
	query := strings.NewReplacer(
		"$owner", m.cfg.GithubOwner,
		"$name", m.cfg.GithubRepo,
	).Replace(queryTemplate)

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return types.GitHubState{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return types.GitHubState{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "etes")
	req.Header.Set("Authorization", "Bearer "+m.cfg.GithubToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return types.GitHubState{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.GitHubState{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var root graphRoot
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return types.GitHubState{}, fmt.Errorf("decode response: %w", err)
	}

	return root.toState(), nil
}

// The response shape of query.graphql. Only the fields the frontend
// needs are declared; everything else in the payload is ignored.
type graphRoot struct {
	Data graphData `json:"data"`
}

type graphData struct {
	Repository graphRepository `json:"repository"`
}

type graphRepository struct {
	DefaultBranchRef graphBranchRef `json:"defaultBranchRef"`
	Releases         graphReleases  `json:"releases"`
	PullRequests     graphPulls     `json:"pullRequests"`
}

type graphBranchRef struct {
	Target graphTarget `json:"target"`
}

type graphTarget struct {
	History graphHistory `json:"history"`
}

type graphHistory struct {
	Edges []graphCommitEdge `json:"edges"`
}

type graphCommitEdge struct {
	Node graphCommitNode `json:"node"`
}

type graphCommitNode struct {
	Oid             string    `json:"oid"`
	CommittedDate   time.Time `json:"committedDate"`
	URL             string    `json:"url"`
	MessageHeadline string    `json:"messageHeadline"`
}

type graphReleases struct {
	Edges []graphReleaseEdge `json:"edges"`
}

type graphReleaseEdge struct {
	Node graphReleaseNode `json:"node"`
}

type graphReleaseNode struct {
	CreatedAt time.Time      `json:"createdAt"`
	Name      string         `json:"name"`
	URL       string         `json:"url"`
	TagName   string         `json:"tagName"`
	TagCommit graphCommitRef `json:"tagCommit"`
}

type graphCommitRef struct {
	Oid          string    `json:"oid"`
	AuthoredDate time.Time `json:"authoredDate"`
}

type graphPulls struct {
	Edges []graphPullEdge `json:"edges"`
}

type graphPullEdge struct {
	Node graphPullNode `json:"node"`
}

type graphPullNode struct {
	CreatedAt         time.Time      `json:"createdAt"`
	IsDraft           bool           `json:"isDraft"`
	Number            int64          `json:"number"`
	Title             string         `json:"title"`
	Assignees         graphAssignees `json:"assignees"`
	StatusCheckRollup graphRollup    `json:"statusCheckRollup"`
}

type graphAssignees struct {
	Edges []graphAssigneeEdge `json:"edges"`
}

type graphAssigneeEdge struct {
	Node types.Assignee `json:"node"`
}

type graphRollup struct {
	Commit graphCommitRef       `json:"commit"`
	State  types.WorkflowStatus `json:"state"`
}

func (r graphRoot) toState() types.GitHubState {
	repo := r.Data.Repository

	commits := make([]types.Commit, 0, len(repo.DefaultBranchRef.Target.History.Edges))
	for _, edge := range repo.DefaultBranchRef.Target.History.Edges {
		commits = append(commits, types.Commit{
			Date:    edge.Node.CommittedDate,
			Hash:    edge.Node.Oid,
			URL:     edge.Node.URL,
			Message: edge.Node.MessageHeadline,
		})
	}

	releases := make([]types.Release, 0, len(repo.Releases.Edges))
	for _, edge := range repo.Releases.Edges {
		releases = append(releases, types.Release{
			Name:      edge.Node.Name,
			URL:       edge.Node.URL,
			TagName:   edge.Node.TagName,
			CreatedAt: edge.Node.CreatedAt,
			Commit: types.Commit{
				Date: edge.Node.TagCommit.AuthoredDate,
				Hash: edge.Node.TagCommit.Oid,
			},
		})
	}

	pulls := make([]types.Pull, 0, len(repo.PullRequests.Edges))
	for _, edge := range repo.PullRequests.Edges {
		assignees := make([]types.Assignee, 0, len(edge.Node.Assignees.Edges))
		for _, assignee := range edge.Node.Assignees.Edges {
			assignees = append(assignees, assignee.Node)
		}

		status := edge.Node.StatusCheckRollup.State
		if status == "" {
			// A head commit without any checks has no rollup.
			status = types.WorkflowPending
		}

		pulls = append(pulls, types.Pull{
			Number:    edge.Node.Number,
			CreatedAt: edge.Node.CreatedAt,
			IsDraft:   edge.Node.IsDraft,
			Title:     edge.Node.Title,
			Assignees: assignees,
			Status:    status,
			Commit: types.Commit{
				Date: edge.Node.StatusCheckRollup.Commit.AuthoredDate,
				Hash: edge.Node.StatusCheckRollup.Commit.Oid,
			},
		})
	}

	return types.GitHubState{Commits: commits, Releases: releases, Pulls: pulls}
}
