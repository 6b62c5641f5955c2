package asgardeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/openshelf/library-server-go/idp"
)

type scimPhoneNumber struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

type scimName struct {
	FamilyName string `json:"familyName"`
	GivenName  string `json:"givenName"`
}

type scimEmail struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
}

type userRequestBody struct {
	UserName     string            `json:"userName"`
	Email        string            `json:"email"`
	Emails       []scimEmail       `json:"emails"`
	PhoneNumbers []scimPhoneNumber `json:"phoneNumbers,omitempty"`
	Name         scimName          `json:"name"`
	Schema       interface{}       `json:"urn:scim:wso2:schema,omitempty"`
}

type userResponseBody struct {
	ID           string            `json:"id"`
	UserName     string            `json:"userName"`
	Emails       []string          `json:"emails"`
	PhoneNumbers []scimPhoneNumber `json:"phoneNumbers"`
	Name         scimName          `json:"name"`
}

func userInfoFromResponse(response *userResponseBody) *idp.UserInfo {
	userInfo := &idp.UserInfo{
		Id:        response.ID,
		FirstName: response.Name.GivenName,
		LastName:  response.Name.FamilyName,
	}

	if len(response.Emails) > 0 {
		userInfo.Email = response.Emails[0]
	}

	if len(response.PhoneNumbers) > 0 {
		userInfo.PhoneNumber = response.PhoneNumbers[0].Value
	}

	return userInfo
}

func userRequestFromInfo(userInfo *idp.User) userRequestBody {
	body := userRequestBody{
		UserName: fmt.Sprintf("DEFAULT/%s", userInfo.Email),
		Email:    userInfo.Email,
		Emails: []scimEmail{
			{
				Value:   userInfo.Email,
				Primary: true,
			},
		},
	}

	body.Name.GivenName = userInfo.FirstName
	body.Name.FamilyName = userInfo.LastName

	if userInfo.PhoneNumber != "" {
		body.PhoneNumbers = []scimPhoneNumber{
			{
				Value: userInfo.PhoneNumber,
				Type:  "mobile",
			},
		}
	}

	return body
}

func (a *Client) GetUser(ctx context.Context, userId string) (*idp.UserInfo, error) {
	url := fmt.Sprintf("%s/scim2/Users/%s", a.BaseURL, userId)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user, status code: %d", res.StatusCode)
	}

	var response userResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return userInfoFromResponse(&response), nil
}

func (a *Client) CreateUser(ctx context.Context, userInfo *idp.User) (*idp.UserInfo, error) {
	url := fmt.Sprintf("%s/scim2/Users", a.BaseURL)

	body := userRequestFromInfo(userInfo)
	// New users set their own password via the invitation flow
	body.Schema = map[string]interface{}{
		"askPassword": true,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/scim+json")

	res, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create user, status code: %d", res.StatusCode)
	}

	var response userResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return userInfoFromResponse(&response), nil
}

func (a *Client) UpdateUser(ctx context.Context, userId string, userInfo *idp.User) (*idp.UserInfo, error) {
	url := fmt.Sprintf("%s/scim2/Users/%s", a.BaseURL, userId)

	body := userRequestFromInfo(userInfo)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(payload))
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
		return nil, fmt.Errorf("failed to update user, status code: %d", res.StatusCode)
	}

	var response userResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return userInfoFromResponse(&response), nil
}

func (a *Client) DeleteUser(ctx context.Context, userId string) error {
	url := fmt.Sprintf("%s/scim2/Users/%s", a.BaseURL, userId)

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete user, status code: %d", res.StatusCode)
	}

	return nil
}
