package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/campus-portal/internal/clients"
	"github.com/pribylovaa/campus-portal/internal/gate"
	"github.com/pribylovaa/campus-portal/internal/models"
)

var errNoSuchView = errors.New("no such view")

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <location>",
		Short: "Navigate to a portal view, e.g. /student or /faculty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := a.nav.Navigate(ctx, args[0])

			if out.State == gate.Admitted && !out.Route.Public {
				view, err := loadView(ctx, a.cl, out)
				if errors.Is(err, clients.ErrSessionEnded) {
					out.State = gate.Denied
					out.Redirect = gate.LoginRedirect(gate.DefaultLoginPath, out.Location)
					return render(cmd.OutOrStdout(), out, nil)
				}
				if err != nil {
					return err
				}

				return render(cmd.OutOrStdout(), out, &view)
			}

			return render(cmd.OutOrStdout(), out, nil)
		},
	}
}

// loadView запрашивает данные допущенного отображения.
func loadView(ctx context.Context, cl *clients.Clients, out gate.Outcome) (models.View, error) {
	view := models.View{Role: out.Role, Location: out.Location}

	var err error
	switch out.Route.Path {
	case "/student":
		view.Name = "student_dashboard"
		view.Data, err = cl.Students.Profile(ctx)
	case "/student/subjects":
		view.Name = "student_subjects"
		view.Data, err = cl.Students.Subjects(ctx)
	case "/faculty":
		view.Name = "faculty_dashboard"
		view.Data, err = cl.Faculty.ListStudents(ctx)
	case "/faculty/students/{id}":
		view.Name = "faculty_student"
		id, perr := strconv.ParseInt(out.Params["id"], 10, 64)
		if perr != nil || id <= 0 {
			return view, fmt.Errorf("%s: %w", out.Location, errNoSuchView)
		}
		view.Data, err = cl.Faculty.Student(ctx, id)
	default:
		view.Name = out.Route.Path
	}

	return view, err
}

// render печатает итог навигации в текстовом виде.
func render(w io.Writer, out gate.Outcome, view *models.View) error {
	switch out.State {
	case gate.NotFound:
		return fmt.Errorf("%s: %w", out.Location, errNoSuchView)
	case gate.Redirected, gate.Denied:
		_, err := fmt.Fprintf(w, "%s -> %s\n", out.State, out.Redirect)
		return err
	case gate.Discarded:
		_, err := fmt.Fprintln(w, "navigation canceled")
		return err
	}

	if view == nil {
		_, err := fmt.Fprintf(w, "%s %s\n", out.State, out.Location)
		return err
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
