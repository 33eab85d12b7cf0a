// Package clientcli glues the interactive terminal prompts to the
// organization builder and session controller for cmd/vault-client.
// Terminal I/O itself is abstracted behind the Prompter interface; this
// package is the thin glue that drives orgbuilder and sessioncontroller
// from whatever answers a Prompter implementation returns.
package clientcli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/allisson/vault/internal/doccrypt"
	vaulterr "github.com/allisson/vault/internal/errors"
	"github.com/allisson/vault/internal/naming"
	"github.com/allisson/vault/internal/orgbuilder"
	"github.com/allisson/vault/internal/sessioncontroller"
	"github.com/allisson/vault/internal/transport"
)

// Prompter is the external-collaborator interface for interactive
// terminal I/O: reading a line, reading a password (masking is a
// terminal concern left to the concrete implementation), and a yes/no
// confirmation. A StdPrompter backed by bufio is provided for the real
// CLI; tests supply their own.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	Confirm(prompt string) (bool, error)
}

// StdPrompter is the default Prompter, reading from in and writing
// prompts to out. It performs no terminal-echo suppression; that is left
// to a richer terminal library if one is wired at the call site.
type StdPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdPrompter builds a Prompter over in/out.
func NewStdPrompter(in io.Reader, out io.Writer) *StdPrompter {
	return &StdPrompter{in: bufio.NewReader(in), out: out}
}

func (p *StdPrompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", vaulterr.Wrap(vaulterr.InputError, err, "could not read input")
	}
	return strings.TrimSpace(line), nil
}

func (p *StdPrompter) ReadPassword(prompt string) (string, error) {
	return p.ReadLine(prompt)
}

func (p *StdPrompter) Confirm(prompt string) (bool, error) {
	answer, err := p.ReadLine(prompt)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

// RunCreateOrganization drives the "create organization" top-level
// choice with the production calibration target: organization name,
// memory limit in gigabytes, then iteratively (username, password,
// confirm, "add another?") until at least two users, then submits.
func RunCreateOrganization(p Prompter, t transport.Transport) error {
	return RunCreateOrganizationWithTarget(p, t, naming.TargetWallTime)
}

// RunCreateOrganizationWithTarget is RunCreateOrganization with an
// explicit Argon2 wall-time calibration target, so callers that need a
// faster hash (tests) don't have to pay the production default.
func RunCreateOrganizationWithTarget(p Prompter, t transport.Transport, calibrationTarget time.Duration) error {
	name, err := p.ReadLine("Organization name: ")
	if err != nil {
		return err
	}

	memLimitStr, err := p.ReadLine("Password-hash memory limit (GB): ")
	if err != nil {
		return err
	}
	var memLimitGB int
	if _, err := fmt.Sscanf(memLimitStr, "%d", &memLimitGB); err != nil || memLimitGB < 1 {
		return vaulterr.New(vaulterr.InputError, "memory limit must be a positive integer")
	}
	hashParams := naming.EmpiricallyChooseArgonConfig(uint32(memLimitGB)*1024*1024, calibrationTarget)

	builder, err := orgbuilder.New(name, hashParams)
	if err != nil {
		return err
	}

	for {
		username, err := p.ReadLine("Username: ")
		if err != nil {
			return err
		}
		password, err := p.ReadPassword("Password: ")
		if err != nil {
			return err
		}
		confirmPassword, err := p.ReadPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirmPassword {
			fmt.Println("passwords do not match")
			continue
		}

		if err := builder.AddUser(username, password); err != nil {
			if vaulterr.KindOf(err) == vaulterr.PasswordNotStrong {
				var ve *vaulterr.VaultError
				if asVaultError(err, &ve) {
					fmt.Println(ve.Msg)
					for _, s := range ve.Advice {
						fmt.Println(" -", s)
					}
				}
				continue
			}
			return err
		}

		if builder.UserCount() >= 2 {
			more, err := p.Confirm("Add another user? (y/n): ")
			if err != nil {
				return err
			}
			if !more {
				break
			}
		}
	}

	return builder.Submit(t)
}

// asVaultError extracts *vaulterr.VaultError from err, if it is one.
func asVaultError(err error, target **vaulterr.VaultError) bool {
	ve, ok := err.(*vaulterr.VaultError)
	if !ok {
		return false
	}
	*target = ve
	return true
}

// RunLogin drives the "log in" top-level choice: organization name, two
// (username, password) pairs, then an interactive menu loop until exit.
// Close is always called on the resulting controller before returning,
// so the bearer token is never left live longer than needed.
func RunLogin(p Prompter, t transport.Transport, logger *slog.Logger) error {
	org, err := p.ReadLine("Organization name: ")
	if err != nil {
		return err
	}
	user1, err := p.ReadLine("Username 1: ")
	if err != nil {
		return err
	}
	password1, err := p.ReadPassword("Password 1: ")
	if err != nil {
		return err
	}
	user2, err := p.ReadLine("Username 2: ")
	if err != nil {
		return err
	}
	password2, err := p.ReadPassword("Password 2: ")
	if err != nil {
		return err
	}

	ctrl, err := sessioncontroller.Unlock(t, org, user1, password1, user2, password2, logger)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return menuLoop(p, ctrl)
}

func menuLoop(p Prompter, ctrl *sessioncontroller.Controller) error {
	for {
		choice, err := p.ReadLine("\n[revoke-user|upload|list|download|update|share|delete|exit]: ")
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "exit":
			return nil
		case "revoke-user":
			if err := runRevokeUser(p, ctrl); err != nil {
				printFailure(err)
			}
		case "upload":
			if err := runUpload(p, ctrl); err != nil {
				printFailure(err)
			}
		case "list":
			if err := runList(ctrl); err != nil {
				printFailure(err)
			}
		case "download":
			if err := runDownload(p, ctrl); err != nil {
				printFailure(err)
			}
		case "update":
			if err := runUpdate(p, ctrl); err != nil {
				printFailure(err)
			}
		case "share":
			if err := runShare(p, ctrl); err != nil {
				printFailure(err)
			}
		case "delete":
			if err := runDelete(p, ctrl); err != nil {
				printFailure(err)
			}
		default:
			fmt.Println("unknown choice")
		}
	}
}

func printFailure(err error) {
	kind := vaulterr.KindOf(err)
	fmt.Println("error:", kind.String())
	if kind == vaulterr.PasswordNotStrong {
		var ve *vaulterr.VaultError
		if asVaultError(err, &ve) {
			for _, s := range ve.Advice {
				fmt.Println(" -", s)
			}
		}
	}
}

func runRevokeUser(p Prompter, ctrl *sessioncontroller.Controller) error {
	user, err := p.ReadLine("Username to revoke: ")
	if err != nil {
		return err
	}
	return ctrl.RevokeUser(user)
}

func runUpload(p Prompter, ctrl *sessioncontroller.Controller) error {
	name, err := p.ReadLine("Document name: ")
	if err != nil {
		return err
	}
	content, err := p.ReadLine("Document content: ")
	if err != nil {
		return err
	}
	return ctrl.Upload(doccrypt.Document{Name: name, Content: []byte(content)})
}

func runList(ctrl *sessioncontroller.Controller) error {
	names, err := ctrl.ListDocumentNames()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runDownload(p Prompter, ctrl *sessioncontroller.Controller) error {
	name, err := p.ReadLine("Document name: ")
	if err != nil {
		return err
	}
	doc, err := ctrl.Download(name)
	if err != nil {
		return err
	}
	fmt.Println(string(doc.Content))
	return nil
}

func runUpdate(p Prompter, ctrl *sessioncontroller.Controller) error {
	oldName, err := p.ReadLine("Existing document name: ")
	if err != nil {
		return err
	}
	newName, err := p.ReadLine("New document name: ")
	if err != nil {
		return err
	}
	content, err := p.ReadLine("New document content: ")
	if err != nil {
		return err
	}
	return ctrl.Update(oldName, doccrypt.Document{Name: newName, Content: []byte(content)})
}

func runShare(p Prompter, ctrl *sessioncontroller.Controller) error {
	name, err := p.ReadLine("Document name: ")
	if err != nil {
		return err
	}
	otherOrg, err := p.ReadLine("Other organization: ")
	if err != nil {
		return err
	}
	return ctrl.Share(name, otherOrg)
}

func runDelete(p Prompter, ctrl *sessioncontroller.Controller) error {
	name, err := p.ReadLine("Document name: ")
	if err != nil {
		return err
	}
	return ctrl.Delete(name)
}
