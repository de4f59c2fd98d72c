package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/skins-market-client/internal/utils"
	"github.com/jrsteele09/skins-market-client/market"
	"github.com/jrsteele09/skins-market-client/session"
)

var errUsage = errors.New("usage")

const cartUsage = "cart [add LISTING_ID | remove ITEM_ID | checkout ITEM_ID]"

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"version":        {"version", cmdVersion},
	"login":          {"login -steam ID -password PASS", cmdLogin},
	"register":       {"register -steam ID -nickname NAME -password PASS", cmdRegister},
	"logout":         {"logout", cmdLogout},
	"whoami":         {"whoami", cmdWhoami},
	"skins":          {"skins [-q TEXT] [-collection C] [-rarity R] [-condition C]", cmdSkins},
	"listings":       {"listings [-mine]", cmdListings},
	"inventory":      {"inventory", cmdInventory},
	"sell":           {"sell INVENTORY_ITEM_ID", cmdSell},
	"cart":           {cartUsage, cmdCart},
	"deposit":        {"deposit [-method CARD|CRYPTO] AMOUNT", cmdTransfer(market.PaymentDeposit)},
	"withdraw":       {"withdraw [-method CARD|CRYPTO] AMOUNT", cmdTransfer(market.PaymentWithdraw)},
	"payments":       {"payments", cmdPayments},
	"tickets":        {"tickets", cmdTickets},
	"ticket":         {"ticket -topic TOPIC -description TEXT", cmdNewTicket},
	"delete-account": {"delete-account", cmdDeleteAccount},
	"admin-users":    {"admin-users", cmdAdminUsers},
	"set-role":       {"set-role USER_ID USER|ADMIN", cmdSetRole},
	"cleanup":        {"cleanup", cmdCleanup},
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}
	name := args[0]
	if name == "-v" || name == "--version" {
		name = "version"
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.errOut, "unknown command %q\n", name)
		a.usage()
		return errUsage
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(a.errOut, "usage: marketctl COMMAND [ARGS]")
	for _, name := range names {
		fmt.Fprintf(a.errOut, "  %s\n", commands[name].usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func positionalID(fs *flag.FlagSet, index int, name string) (int64, error) {
	if fs.NArg() <= index {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(fs.Arg(index), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, fs.Arg(index))
	}
	return id, nil
}

func cmdVersion(_ context.Context, a *app, _ []string) error {
	displayAppname(a.out, a.cfg.GetAppName())
	fmt.Fprintf(a.out, "backend %s (%s)\n", a.cfg.GetAPIBaseURL(), a.cfg.GetEnv())
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	steamID := fs.String("steam", "", "steam id")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := a.session.Login(ctx, *steamID, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.Nickname, user.Role)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	steamID := fs.String("steam", "", "steam id")
	nickname := fs.String("nickname", "", "nickname")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := a.session.Register(ctx, *steamID, *nickname, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s with id %d\n", user.Nickname, user.ID)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	a.session.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	if _, err := a.session.RequireUser(); err != nil {
		return err
	}
	user, err := a.session.RefreshUser(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d %s %s %s balance %d\n", user.ID, user.Nickname, user.SteamID, user.Role, user.Balance)
	return nil
}

func cmdSkins(ctx context.Context, a *app, args []string) error {
	fs := a.flags("skins")
	var filter market.SkinFilter
	fs.StringVar(&filter.Query, "q", "", "name contains")
	fs.StringVar(&filter.Collection, "collection", "", "collection")
	fs.StringVar(&filter.Rarity, "rarity", "", "rarity")
	fs.StringVar(&filter.Condition, "condition", "", "condition")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	skins, err := a.client.Skins(ctx, filter)
	if err != nil {
		return err
	}
	tw := a.table("ID", "NAME", "COLLECTION", "RARITY", "CONDITION")
	for _, s := range skins {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Collection, s.Rarity, s.Condition)
	}
	return tw.Flush()
}

func cmdListings(ctx context.Context, a *app, args []string) error {
	fs := a.flags("listings")
	mine := fs.Bool("mine", false, "only my listings")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var ownerID int64
	if *mine {
		user, err := a.session.RequireUser()
		if err != nil {
			return err
		}
		ownerID = user.ID
	}
	listings, err := a.client.SaleListings(ctx, ownerID)
	if err != nil {
		return err
	}
	tw := a.table("ID", "SKIN", "PRICE", "STATUS", "SELLER")
	for _, l := range listings {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\n", l.ID, l.SkinName, l.Price, l.Status, l.SellerID)
	}
	return tw.Flush()
}

func cmdInventory(ctx context.Context, a *app, _ []string) error {
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	items, err := a.client.Inventory(ctx, user.ID)
	if err != nil {
		return err
	}
	tw := a.table("ID", "SKIN", "TRADABLE")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%t\n", item.ID, item.SkinName, item.Tradable)
	}
	return tw.Flush()
}

func cmdSell(ctx context.Context, a *app, args []string) error {
	fs := a.flags("sell")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	itemID, err := positionalID(fs, 0, "inventory item id")
	if err != nil {
		return err
	}
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	items, err := a.client.Inventory(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID != itemID {
			continue
		}
		sold, err := a.client.SellInstantly(ctx, user.ID, item)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Sold %s for %d\n", item.SkinName, sold.Price)
		return nil
	}
	return fmt.Errorf("inventory item %d not found", itemID)
}

func cmdCart(ctx context.Context, a *app, args []string) error {
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}

	var cart *market.Cart
	switch {
	case len(args) == 0:
		cart, err = a.client.Cart(ctx, user.ID)
	case len(args) == 2 && args[0] == "add":
		var id int64
		if id, err = strconv.ParseInt(args[1], 10, 64); err == nil {
			cart, err = a.client.AddToCart(ctx, user.ID, id)
		}
	case len(args) == 2 && args[0] == "remove":
		var id int64
		if id, err = strconv.ParseInt(args[1], 10, 64); err == nil {
			cart, err = a.client.RemoveCartItem(ctx, user.ID, id)
		}
	case len(args) == 2 && args[0] == "checkout":
		var id int64
		if id, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return err
		}
		msg, err := a.client.CheckoutItem(ctx, user.ID, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		_, err = a.session.RefreshUser(ctx)
		return err
	default:
		fmt.Fprintf(a.errOut, "usage: %s\n", cartUsage)
		return errUsage
	}
	if err != nil {
		return err
	}

	tw := a.table("ITEM", "SKIN", "PRICE", "STATUS", "RESERVED UNTIL")
	for _, item := range cart.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", item.ID, item.SkinName, item.Price, item.ItemStatus, utils.Value(item.ReservedUntil))
	}
	fmt.Fprintf(tw, "\tTOTAL\t%d\t\t\n", cart.Total())
	return tw.Flush()
}

func cmdTransfer(kind market.PaymentType) func(context.Context, *app, []string) error {
	return func(ctx context.Context, a *app, args []string) error {
		fs := a.flags(strings.ToLower(string(kind)))
		method := fs.String("method", string(market.MethodCard), "CARD or CRYPTO")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		amount, err := positionalID(fs, 0, "amount")
		if err != nil {
			return err
		}
		user, err := a.session.RequireUser()
		if err != nil {
			return err
		}

		pm := market.PaymentMethod(strings.ToUpper(*method))
		var payment *market.Payment
		if kind == market.PaymentDeposit {
			payment, err = a.client.Deposit(ctx, user.ID, amount, pm)
		} else {
			payment, err = a.client.Withdraw(ctx, user.ID, amount, pm)
		}
		if err != nil {
			return err
		}
		refreshed, err := a.session.RefreshUser(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %d %s, balance %d\n", payment.Type, payment.Amount, payment.Status, refreshed.Balance)
		return nil
	}
}

func cmdPayments(ctx context.Context, a *app, _ []string) error {
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	payments, err := a.client.Payments(ctx, user.ID)
	if err != nil {
		return err
	}
	tw := a.table("ID", "TYPE", "METHOD", "AMOUNT", "STATUS", "CREATED")
	for _, p := range payments {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.Type, p.Method, p.Amount, p.Status, p.CreatedAt)
	}
	return tw.Flush()
}

func cmdTickets(ctx context.Context, a *app, _ []string) error {
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	tickets, err := a.client.Tickets(ctx, user.ID)
	if err != nil {
		return err
	}
	tw := a.table("ID", "TOPIC", "STATUS", "CREATED", "CLOSED")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Topic, t.Status, t.CreatedAt, utils.ValueOr(t.ClosedAt, "-"))
	}
	return tw.Flush()
}

func cmdNewTicket(ctx context.Context, a *app, args []string) error {
	fs := a.flags("ticket")
	topic := fs.String("topic", "", "topic")
	description := fs.String("description", "", "description")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	ticket, err := a.client.CreateTicket(ctx, market.CreateTicketRequest{
		UserID:      user.ID,
		Topic:       *topic,
		Description: *description,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Ticket %d opened\n", ticket.ID)
	return nil
}

func cmdDeleteAccount(ctx context.Context, a *app, _ []string) error {
	user, err := a.session.RequireUser()
	if err != nil {
		return err
	}
	req, err := a.client.RequestDeletion(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deletion request %d is %s\n", req.ID, req.Status)
	return nil
}

func cmdAdminUsers(ctx context.Context, a *app, _ []string) error {
	if _, err := a.session.RequireAdmin(); err != nil {
		return err
	}
	users, err := a.client.AdminUsers(ctx)
	if err != nil {
		return err
	}
	tw := a.table("ID", "NICKNAME", "STEAM ID", "ROLE", "BALANCE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", u.ID, u.Nickname, u.SteamID, u.Role, u.Balance)
	}
	return tw.Flush()
}

func cmdSetRole(ctx context.Context, a *app, args []string) error {
	fs := a.flags("set-role")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	userID, err := positionalID(fs, 0, "user id")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("role is required")
	}
	if _, err := a.session.RequireAdmin(); err != nil {
		return err
	}
	user, err := a.client.SetUserRole(ctx, userID, session.Role(fs.Arg(1)))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", user.Nickname, user.Role)
	return nil
}

func cmdCleanup(ctx context.Context, a *app, _ []string) error {
	if _, err := a.session.RequireAdmin(); err != nil {
		return err
	}
	cleared, err := a.client.CleanupReservations(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Released %d reservations\n", cleared)
	return nil
}
