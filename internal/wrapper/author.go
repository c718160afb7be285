package wrapper

import (
	"context"
	"fmt"
	"os"

	"github.com/attrgit/attrgit/internal/gitfacade"
)

// ResolveHumanAuthor formats the "Name <email>" string a checkpoint or
// commit is attributed to, following spec §6's precedence: GIT_AUTHOR_NAME /
// GIT_AUTHOR_EMAIL, then EMAIL, then git config user.name / user.email.
func ResolveHumanAuthor(ctx context.Context, facade *gitfacade.Facade) (string, error) {
	name := os.Getenv("GIT_AUTHOR_NAME")
	email := os.Getenv("GIT_AUTHOR_EMAIL")
	if email == "" {
		email = os.Getenv("EMAIL")
	}

	if name == "" {
		cfgName, err := facade.ConfigGet(ctx, "user.name")
		if err != nil {
			return "", fmt.Errorf("resolve author name: %w", err)
		}
		name = cfgName
	}
	if email == "" {
		cfgEmail, err := facade.ConfigGet(ctx, "user.email")
		if err != nil {
			return "", fmt.Errorf("resolve author email: %w", err)
		}
		email = cfgEmail
	}

	if email == "" {
		return name, nil
	}
	return fmt.Sprintf("%s <%s>", name, email), nil
}
