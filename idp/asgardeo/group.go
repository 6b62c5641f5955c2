package asgardeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/openshelf/library-server-go/idp"
)

type groupMemberRequestBody struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

type patchGroupOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

type patchGroupRequestBody struct {
	Schemas    []string              `json:"schemas"`
	Operations []patchGroupOperation `json:"Operations"`
}

type groupListResponseBody struct {
	TotalResults int `json:"totalResults"`
	Resources    []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"Resources"`
}

// GetGroupByName resolves a group display name to its SCIM id
func (a *Client) GetGroupByName(ctx context.Context, groupName string) (*string, error) {
	filter := url.QueryEscape(fmt.Sprintf("displayName eq %s", groupName))
	reqURL := fmt.Sprintf("%s/scim2/Groups?filter=%s", a.BaseURL, filter)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to search groups, status code: %d", res.StatusCode)
	}

	var response groupListResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.TotalResults == 0 || len(response.Resources) == 0 {
		return nil, fmt.Errorf("group not found: %s", groupName)
	}

	return &response.Resources[0].ID, nil
}

// AddMemberToGroupByGroupName adds a user to the named group and returns the group id
func (a *Client) AddMemberToGroupByGroupName(ctx context.Context, groupName string, memberInfo *idp.GroupMember) (*string, error) {
	groupId, err := a.GetGroupByName(ctx, groupName)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/scim2/Groups/%s", a.BaseURL, *groupId)

	body := patchGroupRequestBody{
		Schemas: []string{"urn:ietf:params:scim:api:messages:2.0:PatchOp"},
		Operations: []patchGroupOperation{
			{
				Op:   "add",
				Path: "members",
				Value: []groupMemberRequestBody{
					{
						Value:   memberInfo.Value,
						Display: memberInfo.Display,
					},
				},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PATCH", reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/scim+json")

	res, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to add member to group, status code: %d", res.StatusCode)
	}

	return groupId, nil
}

// RemoveMemberFromGroup removes a user from a group
func (a *Client) RemoveMemberFromGroup(ctx context.Context, groupId string, userId string) error {
	reqURL := fmt.Sprintf("%s/scim2/Groups/%s", a.BaseURL, groupId)

	body := patchGroupRequestBody{
		Schemas: []string{"urn:ietf:params:scim:api:messages:2.0:PatchOp"},
		Operations: []patchGroupOperation{
			{
				Op:   "remove",
				Path: fmt.Sprintf("members[value eq \"%s\"]", userId),
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PATCH", reqURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/scim+json")

	res, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to remove member from group, status code: %d", res.StatusCode)
	}

	return nil
}
