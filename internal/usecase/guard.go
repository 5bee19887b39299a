package usecase

import "github.com/St1cky1/task-tracker/internal/entity"

// AuthorizeProject allows only the project owner. A missing project is reported before
// any ownership decision; unknown identities on either side are refused.
func AuthorizeProject(principal entity.Principal, project *entity.Project) error {
	if project == nil {
		return entity.ErrProjectNotFound
	}
	return matchIdentity(principal, project.OwnerID)
}

// AuthorizeTask allows only the task assignee.
func AuthorizeTask(principal entity.Principal, task *entity.Task) error {
	if task == nil {
		return entity.ErrTaskNotFound
	}
	return matchIdentity(principal, task.AssigneeID)
}

// AuthorizeComment allows only the comment author.
func AuthorizeComment(principal entity.Principal, comment *entity.Comment) error {
	if comment == nil {
		return entity.ErrCommentNotFound
	}
	return matchIdentity(principal, comment.AuthorID)
}

func matchIdentity(principal entity.Principal, controllerID int) error {
	if !principal.Authenticated() || controllerID <= 0 {
		return entity.ErrForbidden
	}
	if principal.UserID != controllerID {
		return entity.ErrForbidden
	}
	return nil
}
