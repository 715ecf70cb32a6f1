package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"skinscan-client/internal/backend"
	"skinscan-client/internal/session"
	"skinscan-client/internal/util"
)

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return a.status(ctx)
	case "guard":
		return a.routeGuard(ctx, args)
	case "redirect":
		return a.redirect(ctx)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "register":
		return a.register(ctx, args)
	case "passwd":
		return a.changePassword(ctx, args)
	case "models":
		return a.models(ctx)
	case "swap":
		return a.withVersion(ctx, "swap", args, a.client.SwapModel)
	case "delete-model":
		return a.withVersion(ctx, "delete-model", args, a.client.DeleteModel)
	case "requests":
		return a.requests(ctx, args)
	case "request":
		return a.request(ctx, args)
	case "upload":
		return a.upload(ctx, args)
	case "fields":
		return a.printJSON(a.schema)
	case "retrain":
		return a.retrain(ctx, args)
	case "jobs":
		return a.jobs(ctx)
	case "clear-jobs":
		a.ensureToken(ctx)
		return a.client.DeleteCompletedJobs(ctx)
	case "datapoints":
		n, err := a.client.TotalDataPoints(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, n)
		return nil
	case "users":
		users, err := a.client.AllUsers(ctx)
		if err != nil {
			return err
		}
		return a.printJSON(users)
	case "delete-user":
		return a.deleteUser(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

// ensureToken makes sure a CSRF token is cached before an unsafe request.
func (a *app) ensureToken(ctx context.Context) {
	if _, ok := a.tokens.Token(); ok {
		return
	}
	if _, ok := a.tokens.SyncFromCookie(); ok {
		return
	}
	a.tokens.FetchAndCache(ctx)
	a.tokens.SyncFromCookie()
}

type statusOutput struct {
	LoggedIn bool   `json:"is_logged_in"`
	Username string `json:"username,omitempty"`
	Admin    bool   `json:"is_admin"`
	CSRF     bool   `json:"csrf_token_cached"`
}

func (a *app) status(ctx context.Context) error {
	a.ensureToken(ctx)

	var out statusOutput
	_, out.CSRF = a.tokens.Token()

	st, err := a.client.IsLoggedIn(ctx)
	switch {
	case backend.IsUnauthorized(err):
		return a.printJSON(out)
	case err != nil:
		return err
	}
	out.LoggedIn, out.Username = st.LoggedIn, st.Username
	if out.LoggedIn {
		adm, err := a.client.IsAdmin(ctx)
		if err != nil && !backend.IsUnauthorized(err) {
			return err
		}
		out.Admin = adm.Admin
	}
	return a.printJSON(out)
}

func (a *app) routeGuard(ctx context.Context, args []string) error {
	fs := newFlags("guard")
	admin := fs.Bool("admin", false, "require an admin session")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	d := a.guard.RouteGuard(ctx, *admin)
	return a.printDecision(d)
}

func (a *app) redirect(ctx context.Context) error {
	d := a.guard.LoggedInRedirect(ctx)
	return a.printDecision(d)
}

func (a *app) printDecision(d session.Decision) error {
	return a.printJSON(map[string]string{
		"decision": string(d),
		"route":    a.nav.Last(),
	})
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	user := fs.String("user", "", "username")
	password := fs.String("password", "", "password (defaults to $SKINSCAN_PASSWORD)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("SKINSCAN_PASSWORD")
	}
	if *user == "" || *password == "" {
		return fmt.Errorf("%w: login needs -user and -password", errUsage)
	}

	a.ensureToken(ctx)
	name, err := a.client.Login(ctx, *user, *password)
	if err != nil {
		return err
	}
	// The backend rotates the token on login.
	a.tokens.SyncFromCookie()
	a.guard.Reset()

	d := a.guard.LoggedInRedirect(ctx)
	a.logger.Info("logged in", "username", name, "decision", string(d))
	return a.printJSON(map[string]string{"username": name, "route": a.nav.Last()})
}

func (a *app) logout(ctx context.Context) error {
	a.ensureToken(ctx)
	err := a.client.Logout(ctx)
	a.guard.Reset()
	if cerr := a.jar.Clear(); cerr != nil {
		a.logger.Warn("failed to clear cookies", "err", cerr)
	}
	a.tokens.Set("")
	if err != nil && !backend.IsUnauthorized(err) {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	var reg backend.Registration
	fs.StringVar(&reg.Username, "user", "", "username")
	fs.StringVar(&reg.Password, "password", "", "password")
	fs.IntVar(&reg.Age, "age", 0, "age")
	fs.StringVar(&reg.Sex, "sex", "", "sex")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if reg.Username == "" || reg.Password == "" {
		return fmt.Errorf("%w: register needs -user and -password", errUsage)
	}
	a.ensureToken(ctx)
	return a.client.Register(ctx, reg)
}

func (a *app) changePassword(ctx context.Context, args []string) error {
	fs := newFlags("passwd")
	password := fs.String("password", "", "new password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *password == "" {
		return fmt.Errorf("%w: passwd needs -password", errUsage)
	}
	a.ensureToken(ctx)
	return a.client.ChangePassword(ctx, *password)
}

func (a *app) models(ctx context.Context) error {
	if err := a.loader.LoadModels(ctx); err != nil {
		return err
	}
	if err := a.loader.LoadActiveModel(ctx); err != nil {
		return err
	}

	var active backend.Version
	if m := a.state.ActiveModel.Get(); m != nil {
		active = m.Version
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tCREATED\tEPOCHS\tBATCH\tLR\tVAL ACC\tACTIVE")
	for _, m := range a.state.Models.Get() {
		h := m.Hyperparameters
		mark := ""
		if m.Version == active {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%g\t%.3f\t%s\n",
			m.Version, formatTime(m.CreatedAt), h.NumEpochs, h.BatchSize, h.LearningRate, h.ValidationAccuracy, mark)
	}
	return tw.Flush()
}

func (a *app) withVersion(ctx context.Context, name string, args []string, fn func(context.Context, backend.Version) error) error {
	fs := newFlags(name)
	version := fs.String("version", "", "model version")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *version == "" {
		return fmt.Errorf("%w: %s needs -version", errUsage, name)
	}
	a.ensureToken(ctx)
	return fn(ctx, backend.Version(*version))
}

func (a *app) requests(ctx context.Context, args []string) error {
	fs := newFlags("requests")
	all := fs.Bool("all", false, "list every user's requests")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	load := a.loader.LoadMyRequests
	if *all {
		load = a.loader.LoadAllRequests
	}
	if err := load(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tUSER\tLESION\tPROBABILITY")
	for _, r := range a.state.UserRequests.Get() {
		prob := "-"
		if r.Probability != nil {
			prob = fmt.Sprintf("%.3f", *r.Probability)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.RequestID, formatTime(r.CreatedAt), r.User, r.LesionType, prob)
	}
	return tw.Flush()
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := newFlags("request")
	id := fs.Int("id", 0, "request id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		return fmt.Errorf("%w: request needs -id", errUsage)
	}
	r, err := a.client.Request(ctx, *id)
	if err != nil {
		return err
	}
	return a.printJSON(r)
}

func (a *app) upload(ctx context.Context, args []string) error {
	fs := newFlags("upload")
	file := fs.String("file", "", "image path")
	localization := fs.String("localization", "", "body site of the lesion")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" || *localization == "" {
		return fmt.Errorf("%w: upload needs -file and -localization", errUsage)
	}
	img, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}

	a.ensureToken(ctx)
	id, err := a.client.CreateRequest(ctx, *localization, img)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]int{"request_id": id})
}

// setFlags collects repeated -set id=value arguments.
type setFlags []string

func (s *setFlags) String() string { return strings.Join(*s, ",") }

func (s *setFlags) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected id=value, got %q", v)
	}
	*s = append(*s, v)
	return nil
}

func (a *app) retrain(ctx context.Context, args []string) error {
	fs := newFlags("retrain")
	var sets setFlags
	fs.Var(&sets, "set", "override a field, id=value (repeatable)")
	dryRun := fs.Bool("dry-run", false, "print the payload without submitting")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	form := a.schema.NewForm()
	for _, kv := range sets {
		id, value, _ := strings.Cut(kv, "=")
		if err := form.SetText(strings.TrimSpace(id), value); err != nil {
			return err
		}
	}
	payload := form.RetrainPayload()
	a.logger.Debug("retrain payload", "payload", util.MustJSON(payload))
	if *dryRun {
		return a.printJSON(payload)
	}

	a.ensureToken(ctx)
	jobID, err := a.client.Retrain(ctx, payload)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]string{"job_id": jobID})
}

func (a *app) jobs(ctx context.Context) error {
	jobs, err := a.client.TrainingJobs(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tSTARTED\tSTATUS\tERROR")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, formatTime(j.StartTime), j.Status, j.Error)
	}
	return tw.Flush()
}

func (a *app) deleteUser(ctx context.Context, args []string) error {
	fs := newFlags("delete-user")
	user := fs.String("user", "", "username")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *user == "" {
		return fmt.Errorf("%w: delete-user needs -user", errUsage)
	}
	a.ensureToken(ctx)
	return a.client.DeleteUser(ctx, *user)
}

func formatTime(ts backend.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format(time.DateTime)
}
