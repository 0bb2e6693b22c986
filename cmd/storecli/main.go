// storecli exercises the client library end to end against a running
// server: browse the catalog, build a cart, log in and place orders. State
// lives in a local sqlite file, so carts and sessions survive between runs
// the same way a browser's localStorage would.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/zsimmons25/see-more/internal/client/api"
	"github.com/zsimmons25/see-more/internal/client/cart"
	"github.com/zsimmons25/see-more/internal/client/checkout"
	"github.com/zsimmons25/see-more/internal/client/session"
	"github.com/zsimmons25/see-more/internal/client/storage"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storecli <command> [args]

commands:
  products                          list the catalog
  login <email> <password>
  register <first> <last> <email> <password>
  logout
  whoami                            show the current session
  cart                              show the cart
  add <productId> <quantity>        add a catalog product to the cart
  update <productId> <quantity>     set a cart quantity (0 removes)
  remove <productId>
  clear
  checkout                          place the order for the current cart
  orders                            list past orders
  add-funds <amount>`)
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	store, err := storage.NewSQLiteStore(getEnv("STORE_PATH", "storecli.db"))
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer store.Close()

	client := api.NewClient(getEnv("API_URL", "http://localhost:8080"))
	sess := session.New(store, client)
	basket := cart.New(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "products":
		products, err := client.ListProducts(ctx)
		if err != nil {
			log.Fatalf("failed to list products: %v", err)
		}
		for _, p := range products {
			fmt.Printf("%3d  %-24s %-10s $%.2f\n", p.ID, p.Name, p.Brand, p.Price)
		}

	case "login":
		if len(os.Args) != 4 {
			usage()
		}
		if err := sess.Login(ctx, os.Args[2], os.Args[3]); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		fmt.Printf("logged in as %s\n", sess.Profile().Email)

	case "register":
		if len(os.Args) != 6 {
			usage()
		}
		err := sess.Register(ctx, api.RegisterRequest{
			FirstName: os.Args[2],
			LastName:  os.Args[3],
			Email:     os.Args[4],
			Password:  os.Args[5],
		})
		if err != nil {
			log.Fatalf("registration failed: %v", err)
		}
		fmt.Printf("registered %s, balance $%.2f\n", sess.Profile().Email, sess.Profile().Balance)

	case "logout":
		if err := sess.Logout(); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")

	case "whoami":
		if !sess.IsAuthenticated() {
			fmt.Println("not logged in")
			return
		}
		p := sess.Profile()
		fmt.Printf("%s %s <%s>  balance $%.2f\n", p.FirstName, p.LastName, p.Email, p.Balance)

	case "cart":
		for _, item := range basket.Items() {
			fmt.Printf("%3d  %-24s x%d  $%.2f\n", item.ProductID, item.ProductName, item.Quantity, item.UnitPrice)
		}
		fmt.Printf("%d item(s), total $%.2f\n", basket.ItemCount(), basket.Total())

	case "add":
		if len(os.Args) != 4 {
			usage()
		}
		productID := parseInt(os.Args[2])
		quantity := int(parseInt(os.Args[3]))
		product, err := client.GetProduct(ctx, productID)
		if err != nil {
			log.Fatalf("failed to fetch product %d: %v", productID, err)
		}
		err = basket.AddItem(api.LineItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    quantity,
			UnitPrice:   product.Price,
		})
		if err != nil {
			log.Fatalf("failed to add item: %v", err)
		}
		fmt.Printf("added %s x%d\n", product.Name, quantity)

	case "update":
		if len(os.Args) != 4 {
			usage()
		}
		if err := basket.UpdateQuantity(parseInt(os.Args[2]), int(parseInt(os.Args[3]))); err != nil {
			log.Fatalf("failed to update quantity: %v", err)
		}

	case "remove":
		if len(os.Args) != 3 {
			usage()
		}
		if err := basket.RemoveItem(parseInt(os.Args[2])); err != nil {
			log.Fatalf("failed to remove item: %v", err)
		}

	case "clear":
		if err := basket.Clear(); err != nil {
			log.Fatalf("failed to clear cart: %v", err)
		}

	case "checkout":
		order, err := checkout.New(client, basket, sess).PlaceOrder(ctx)
		if err != nil {
			log.Fatalf("checkout failed: %v", err)
		}
		fmt.Printf("order %s placed, total $%.2f, balance $%.2f\n",
			order.ID, order.Total, sess.Profile().Balance)

	case "orders":
		if !sess.IsAuthenticated() {
			log.Fatal("not logged in")
		}
		orders, err := client.ListOrders(ctx, sess.Profile().ID)
		if err != nil {
			log.Fatalf("failed to list orders: %v", err)
		}
		for _, o := range orders {
			fmt.Printf("%s  %-10s $%.2f  %s\n",
				o.CreatedAt.Format("2006-01-02 15:04"), o.Status, o.Total, o.ID)
		}

	case "add-funds":
		if len(os.Args) != 3 {
			usage()
		}
		if !sess.IsAuthenticated() {
			log.Fatal("not logged in")
		}
		amount, err := strconv.ParseFloat(os.Args[2], 64)
		if err != nil {
			log.Fatalf("invalid amount %q", os.Args[2])
		}
		user, err := client.AddFunds(ctx, sess.Profile().ID, amount)
		if err != nil {
			log.Fatalf("failed to add funds: %v", err)
		}
		if err := sess.UpdateBalanceMirror(user.Balance); err != nil {
			log.Fatalf("failed to update local balance: %v", err)
		}
		fmt.Printf("balance $%.2f\n", user.Balance)

	default:
		usage()
	}
}

func parseInt(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Fatalf("invalid number %q", s)
	}
	return v
}
