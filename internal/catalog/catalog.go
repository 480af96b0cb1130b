package catalog

import "errors"

// ResourceType names the kinds of access that can be requested through
// the portal.
type ResourceType string

const (
	TypeDeploymentEnvLock      ResourceType = "deployment_env_lock"
	TypeFeatureFlagChange      ResourceType = "feature_flag_change"
	TypeDBReadonly             ResourceType = "db_readonly"
	TypeDWHDatasetViewer       ResourceType = "dwh_dataset_viewer"
	TypeCloudConsoleRole       ResourceType = "cloud_console_role"
	TypeObjectStoreWriteWindow ResourceType = "object_store_write_window"
	TypeK8sNamespaceAccess     ResourceType = "k8s_namespace_access"
	TypeSecretsRead            ResourceType = "secrets_read"
	TypeGithubRepoPermission   ResourceType = "github_repo_permission"
	TypeCICDBypass             ResourceType = "cicd_bypass"
	TypeMonitoringEdit         ResourceType = "monitoring_edit"
	TypeLoggingQuery           ResourceType = "logging_query"
	TypeTestRunRequest         ResourceType = "test_run_request"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Resource is a static, requestable resource definition. Resources are
// fixed at build time and never created through the API.
type Resource struct {
	ID                    string                 `json:"id"`
	Name                  string                 `json:"name"`
	Type                  ResourceType           `json:"type"`
	RiskLevel             RiskLevel              `json:"risk_level"`
	ApproverRole          string                 `json:"approver_role"`
	Tags                  []string               `json:"tags"`
	AllowedRequesterRoles []string               `json:"allowed_requester_roles,omitempty"`
	Details               map[string]interface{} `json:"details,omitempty"`
}

// VisibleTo reports whether a requester with the given role may see and
// request this resource. Admins bypass the filter; resources without a
// role restriction are visible to everyone.
func (r *Resource) VisibleTo(role string) bool {
	if role == "admin" {
		return true
	}
	if len(r.AllowedRequesterRoles) == 0 {
		return true
	}
	for _, allowed := range r.AllowedRequesterRoles {
		if allowed == role {
			return true
		}
	}
	return false
}

var ErrResourceNotFound = errors.New("resource not found")

// Resources is the built-in catalog.
var Resources = []Resource{
	{
		ID:                    "res_dev_lock",
		Name:                  "Development Environment Lock",
		Type:                  TypeDeploymentEnvLock,
		RiskLevel:             RiskMedium,
		ApproverRole:          "admin",
		Tags:                  []string{"deploy", "development"},
		AllowedRequesterRoles: []string{"developer", "qa"},
		Details:               map[string]interface{}{"environment": "development", "maxDurationHours": 8},
	},
	{
		ID:                    "res_test_lock",
		Name:                  "Test Environment Lock",
		Type:                  TypeDeploymentEnvLock,
		RiskLevel:             RiskMedium,
		ApproverRole:          "admin",
		Tags:                  []string{"deploy", "test"},
		AllowedRequesterRoles: []string{"developer", "qa"},
		Details:               map[string]interface{}{"environment": "test", "maxDurationHours": 8},
	},
	{
		ID:                    "res_staging_lock",
		Name:                  "Staging Environment Lock",
		Type:                  TypeDeploymentEnvLock,
		RiskLevel:             RiskMedium,
		ApproverRole:          "admin",
		Tags:                  []string{"deploy", "staging"},
		AllowedRequesterRoles: []string{"developer", "qa"},
		Details:               map[string]interface{}{"environment": "staging", "maxDurationHours": 8},
	},
	{
		ID:                    "res_uat_lock",
		Name:                  "UAT Environment Lock",
		Type:                  TypeDeploymentEnvLock,
		RiskLevel:             RiskMedium,
		ApproverRole:          "admin",
		Tags:                  []string{"deploy", "uat"},
		AllowedRequesterRoles: []string{"developer", "qa"},
		Details:               map[string]interface{}{"environment": "uat", "maxDurationHours": 8},
	},
	{
		ID:                    "res_test_run",
		Name:                  "Automated Test Run",
		Type:                  TypeTestRunRequest,
		RiskLevel:             RiskLow,
		ApproverRole:          "admin",
		Tags:                  []string{"tests"},
		AllowedRequesterRoles: []string{"developer", "qa"},
		Details:               map[string]interface{}{"suites": []string{"smoke", "regression"}},
	},
}
