// Package privacy provides the authorization collaborator of generated
// services.
//
// Generated handlers pass an authorize flag to the service layer; when it
// is set, services call Authorizer.AuthorizeOrThrow with a permission code
// built by PermissionCode:
//
//	code := privacy.PermissionCode(privacy.ActionRead, "User") // "ReadUser"
//
// # Rule Evaluation
//
// An Authorizer built by NewAuthorizer evaluates its rules in order until
// one returns a final decision:
//
//   - Allow: Grants access and stops evaluation
//   - Deny: Denies access and stops evaluation
//   - Skip: Continues to the next rule
//
// If all rules return Skip, access is denied.
//
//	authz := privacy.NewAuthorizer(
//	    privacy.DenyIfNoViewer(),
//	    privacy.HasRole("admin"),
//	    privacy.DenyActionRule(privacy.ActionDelete),
//	    privacy.HasPermission(),
//	)
//
// # Viewer Interface
//
// The viewer is stored in context and retrieved during evaluation:
//
//	ctx := privacy.WithViewer(ctx, &privacy.SimpleViewer{
//	    UserID:      "user-123",
//	    Permissions: []string{"ReadUser"},
//	})
//
// # Error Handling
//
// Denied codes are reported as a *PermissionError, which matches Deny:
//
//	if privacy.IsDenied(err) {
//	    w.WriteHeader(http.StatusForbidden)
//	}
package privacy
