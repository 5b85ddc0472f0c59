package ports

import "github.com/bnema/botctl/internal/domain"

type Notifier interface {
	Notify(notice domain.Notice)
}

// Display is the sink that actually puts a message in front of the user.
type Display interface {
	ShowNotice(notice domain.Notice)
	HideNotice()
}
