package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/agrimove/agrimove-backend/internal/models"
	"github.com/agrimove/agrimove-backend/internal/storage"
)

// Canned replies shared across states
const (
	replyInvalidSelection = "Invalid selection. Please try again."
	replyInvalidQuantity  = "Invalid quantity. Please enter a number greater than zero."
	replyGoodbye          = "Thank you for using AgriMove. Goodbye!"
	replyGatewayDown      = "Service temporarily unavailable. Returning to main menu..."
	replyComingSoon       = "This feature will be available soon. Please check back later."
)

// listPageSize caps numbered lists so replies fit a USSD screen
const listPageSize = 5

// MenuEngine drives the menu-based conversation shared by the USSD and
// WhatsApp channels. It mutates only the session passed into Process; all
// data access goes through the store, and the only write is order creation
// at checkout.
type MenuEngine struct {
	store    storage.Store
	sessions *SessionStore
}

// NewMenuEngine creates the conversation engine
func NewMenuEngine(store storage.Store, sessions *SessionStore) *MenuEngine {
	return &MenuEngine{
		store:    store,
		sessions: sessions,
	}
}

// Process runs one conversational turn and returns the reply text.
// The caller must hold the session's turn lock.
func (e *MenuEngine) Process(session *Session, text string) string {
	text = strings.TrimSpace(text)

	// A fresh session always starts at welcome
	if session.CurrentMenu == MenuWelcome || session.CurrentMenu == "" {
		return e.handleWelcome(session, text)
	}

	switch session.CurrentMenu {
	case MenuMain:
		return e.handleMainMenu(session, text)
	case MenuProduceList:
		return e.handleProduceList(session, text)
	case MenuOrderStatus:
		return e.handleOrderStatus(session, text)
	case MenuFarmInfo:
		return e.handleFarmInfo(session, text)
	case MenuPlaceOrder:
		return e.handlePlaceOrder(session, text)
	case MenuConfirmOrder:
		return e.handleConfirmOrder(session, text)
	default:
		// Stale or unknown state falls back to the main menu
		session.CurrentMenu = MenuMain
		return e.handleMainMenu(session, "")
	}
}

// handleWelcome identifies the caller by phone number and either drops
// them into their main menu or offers the role-selection prompt.
func (e *MenuEngine) handleWelcome(session *Session, text string) string {
	user, err := e.store.GetUserByPhone(session.PhoneNumber)
	if err != nil {
		log.Printf("User lookup failed for %s: %v", session.PhoneNumber, err)
		return e.gatewayDown(session)
	}

	session.CurrentMenu = MenuMain

	if user != nil {
		session.UserData.Role = user.Role
		session.UserData.UserID = user.ID
		return e.handleMainMenu(session, "")
	}

	// A digit typed on the opening turn is taken as a role choice
	if text >= "1" && text <= "4" && len(text) == 1 {
		return e.handleMainMenu(session, text)
	}

	// Unregistered caller: the next input is a role choice. Kept under
	// one USSD screen, so no registration smalltalk.
	return `Welcome to AgriMove!

Your phone number is not registered. For a demo, enter:
1. Continue as Buyer
2. Continue as Farmer
3. Continue as Driver
4. Exit`
}

func (e *MenuEngine) handleMainMenu(session *Session, text string) string {
	if text != "" {
		if session.UserData.Role == "" {
			return e.handleRoleSelection(session, text)
		}
		return e.handleMenuSelection(session, text)
	}

	// No input: render the menu for the current role
	switch session.UserData.Role {
	case models.RoleBuyer:
		return buyerMenuText
	case models.RoleFarmer:
		return farmerMenuText
	case models.RoleDriver:
		return driverMenuText
	default:
		return `Welcome to AgriMove!

Please select an option:
1. Continue as Buyer
2. Continue as Farmer
3. Continue as Driver
4. Exit`
	}
}

func (e *MenuEngine) handleRoleSelection(session *Session, text string) string {
	switch text {
	case "1":
		session.UserData.Role = models.RoleBuyer
		return buyerMenuText
	case "2":
		session.UserData.Role = models.RoleFarmer
		return farmerMenuText
	case "3":
		session.UserData.Role = models.RoleDriver
		return driverMenuText
	case "4":
		e.sessions.End(session.SessionID)
		return replyGoodbye
	default:
		return replyInvalidSelection
	}
}

func (e *MenuEngine) handleMenuSelection(session *Session, text string) string {
	if session.UserData.Role != models.RoleBuyer {
		// Farmer and driver flows are not built out yet
		if text == "5" {
			e.sessions.End(session.SessionID)
			return replyGoodbye
		}
		return replyComingSoon
	}

	switch text {
	case "1":
		session.CurrentMenu = MenuProduceList
		return e.handleProduceList(session, "")
	case "2":
		session.CurrentMenu = MenuOrderStatus
		return e.handleOrderStatus(session, "")
	case "3":
		session.CurrentMenu = MenuFarmInfo
		return e.handleFarmInfo(session, "")
	case "4":
		session.CurrentMenu = MenuPlaceOrder
		return e.handlePlaceOrder(session, "")
	case "5":
		e.sessions.End(session.SessionID)
		return replyGoodbye
	default:
		return replyInvalidSelection
	}
}

func (e *MenuEngine) handleProduceList(session *Session, text string) string {
	// Quantity entry for an item added from its detail page
	if session.UserData.PendingProduceID != 0 && text != "" {
		return e.handleQuantityEntry(session, text, func() string {
			session.UserData.ViewingProduceID = 0
			return e.handleProduceList(session, "")
		})
	}

	if text == "" {
		items, err := e.store.GetAllProduce()
		if err != nil {
			log.Printf("Produce lookup failed: %v", err)
			return e.gatewayDown(session)
		}

		if len(items) == 0 {
			session.CurrentMenu = MenuMain
			return "No products available at the moment. Returning to main menu..."
		}

		session.UserData.ViewingProduceID = 0
		reply := "Available Products:\n"
		reply += e.renderProduceList(session, items)
		reply += "\nEnter product number for details or 0 to return to main menu."
		return reply
	}

	// Detail page: 1 adds to cart, 0 goes back to the list
	if viewing := session.UserData.ViewingProduceID; viewing != 0 {
		switch text {
		case "1":
			return e.promptQuantity(session, viewing)
		case "0":
			session.UserData.ViewingProduceID = 0
			return e.handleProduceList(session, "")
		default:
			return replyInvalidSelection
		}
	}

	if text == "0" {
		session.CurrentMenu = MenuMain
		return e.handleMainMenu(session, "")
	}

	produce, reply := e.resolveListedProduce(session, text)
	if produce == nil {
		return reply
	}

	farmName := "Unknown farm"
	if farm, err := e.store.GetFarmByFarmer(produce.FarmerID); err == nil {
		farmName = farm.Name
	}

	description := produce.Description
	if description == "" {
		description = "No description"
	}

	session.UserData.ViewingProduceID = produce.ID
	return fmt.Sprintf(`Product Details:

Name: %s
Price: %s/%s
Farm: %s
Description: %s

Enter:
1. Add to cart
0. Back to product list`, produce.Name, formatPrice(produce.Price), produce.Unit, farmName, description)
}

func (e *MenuEngine) handleOrderStatus(session *Session, text string) string {
	if session.UserData.UserID == 0 {
		session.CurrentMenu = MenuMain
		return "You need to be logged in to view orders. Returning to main menu..."
	}

	if text == "" {
		orders, err := e.store.GetOrdersByBuyer(session.UserData.UserID)
		if err != nil {
			log.Printf("Order lookup failed for user %d: %v", session.UserData.UserID, err)
			return e.gatewayDown(session)
		}

		if len(orders) == 0 {
			session.CurrentMenu = MenuMain
			return "You have no orders yet. Returning to main menu..."
		}

		session.UserData.ListedOrders = nil
		reply := "Your Recent Orders:\n"
		for i, order := range orders {
			if i >= listPageSize {
				break
			}
			session.UserData.ListedOrders = append(session.UserData.ListedOrders, order.ID)
			reply += fmt.Sprintf("%d. Order #%d - %s - $%.2f\n", i+1, order.ID, order.Status, order.Total)
		}
		reply += "\nEnter order number for details or 0 for main menu."
		return reply
	}

	if text == "0" {
		session.CurrentMenu = MenuMain
		return e.handleMainMenu(session, "")
	}

	selection, ok := parseSelection(text, len(session.UserData.ListedOrders))
	if !ok {
		return replyInvalidSelection
	}

	order, err := e.store.GetOrder(session.UserData.ListedOrders[selection-1])
	if err != nil {
		log.Printf("Order lookup failed: %v", err)
		return e.gatewayDown(session)
	}

	items, err := e.store.GetOrderItemsByOrder(order.ID)
	if err != nil {
		log.Printf("Order item lookup failed for order %d: %v", order.ID, err)
		return e.gatewayDown(session)
	}

	return e.formatOrderDetails(order, items) + "\n\nEnter 0 for main menu."
}

func (e *MenuEngine) handleFarmInfo(session *Session, text string) string {
	if text == "" {
		farms, err := e.store.GetAllFarms()
		if err != nil {
			log.Printf("Farm lookup failed: %v", err)
			return e.gatewayDown(session)
		}

		if len(farms) == 0 {
			session.CurrentMenu = MenuMain
			return "No farms available at the moment. Returning to main menu..."
		}

		session.UserData.ListedFarms = nil
		reply := "Farms:\n"
		for i, farm := range farms {
			session.UserData.ListedFarms = append(session.UserData.ListedFarms, farm.ID)
			reply += fmt.Sprintf("%d. %s (Rating: %.1f)\n", i+1, farm.Name, farm.Rating)
		}
		reply += "\nEnter farm number for details or 0 for main menu."
		return reply
	}

	if text == "0" {
		session.CurrentMenu = MenuMain
		return e.handleMainMenu(session, "")
	}

	selection, ok := parseSelection(text, len(session.UserData.ListedFarms))
	if !ok {
		return replyInvalidSelection
	}

	farm, err := e.store.GetFarm(session.UserData.ListedFarms[selection-1])
	if err != nil {
		log.Printf("Farm lookup failed: %v", err)
		return e.gatewayDown(session)
	}

	produceItems, err := e.store.GetProduceByFarmer(farm.FarmerID)
	if err != nil {
		log.Printf("Produce lookup failed for farmer %d: %v", farm.FarmerID, err)
		return e.gatewayDown(session)
	}

	description := farm.Description
	if description == "" {
		description = "No description"
	}

	reply := fmt.Sprintf(`Farm Details:

Name: %s
Rating: %.1f/5
Location: %s
Description: %s

Products (%d):`, farm.Name, farm.Rating, farm.Address, description, len(produceItems))

	for i, item := range produceItems {
		if i >= 3 {
			reply += "\n- ... and more"
			break
		}
		reply += fmt.Sprintf("\n- %s: %s/%s", item.Name, formatPrice(item.Price), item.Unit)
	}

	reply += "\n\nEnter 0 to go back."
	return reply
}

func (e *MenuEngine) handlePlaceOrder(session *Session, text string) string {
	if session.UserData.PendingProduceID != 0 && text != "" {
		return e.handleQuantityEntry(session, text, func() string {
			return e.handlePlaceOrder(session, "")
		})
	}

	if session.UserData.PendingRemoval && text != "" {
		return e.handleCartRemoval(session, text)
	}

	if text == "" {
		items, err := e.store.GetAllProduce()
		if err != nil {
			log.Printf("Produce lookup failed: %v", err)
			return e.gatewayDown(session)
		}

		if len(items) == 0 {
			session.CurrentMenu = MenuMain
			return "No products available for order. Returning to main menu..."
		}

		reply := "Select a product to add to your order:\n"
		reply += e.renderProduceList(session, items)

		if len(session.UserData.Cart) > 0 {
			reply += fmt.Sprintf("\nYour cart has %d items.", len(session.UserData.Cart))
			reply += "\nEnter product number or:"
			reply += "\nC. View Cart"
			reply += "\nF. Finish Order"
			reply += "\n0. Main Menu"
		} else {
			reply += "\nEnter product number or 0 for main menu."
		}
		return reply
	}

	switch strings.ToUpper(text) {
	case "C":
		return e.renderCart(session)
	case "F":
		if len(session.UserData.Cart) == 0 {
			return "Your cart is empty. Select products to add."
		}
		session.CurrentMenu = MenuConfirmOrder
		return e.handleConfirmOrder(session, "")
	case "R":
		if len(session.UserData.Cart) == 0 {
			return "Your cart is empty. Select products to add."
		}
		session.UserData.PendingRemoval = true
		return "Enter the item number to remove:"
	case "0":
		session.CurrentMenu = MenuMain
		return e.handleMainMenu(session, "")
	}

	produce, reply := e.resolveListedProduce(session, text)
	if produce == nil {
		return reply
	}

	return e.promptQuantity(session, produce.ID)
}

func (e *MenuEngine) handleConfirmOrder(session *Session, text string) string {
	if len(session.UserData.Cart) == 0 {
		session.CurrentMenu = MenuMain
		return "Your cart is empty. Returning to main menu..."
	}

	if text == "" {
		var total float64
		for _, item := range session.UserData.Cart {
			total += item.Quantity * item.UnitPrice
		}

		// Snapshot the cart into the order under construction, resolving
		// each line's farmer now so catalog edits cannot skew the order
		items := make([]models.OrderItemInput, 0, len(session.UserData.Cart))
		for _, item := range session.UserData.Cart {
			produce, err := e.store.GetProduce(item.ProduceID)
			if err != nil {
				log.Printf("Produce lookup failed for checkout: %v", err)
				return e.gatewayDown(session)
			}
			items = append(items, models.OrderItemInput{
				ProduceID: item.ProduceID,
				Quantity:  item.Quantity,
				FarmerID:  produce.FarmerID,
				UnitPrice: item.UnitPrice,
			})
		}

		session.UserData.TempOrder = &TempOrder{
			Items: items,
			Total: total,
		}

		return fmt.Sprintf(`Order Summary:
Total: $%.2f
Items: %d

Enter your delivery address to continue:`, total, len(session.UserData.Cart))
	}

	order := session.UserData.TempOrder
	if order == nil {
		session.CurrentMenu = MenuMain
		return "Error processing your order. Please try again."
	}

	if !order.AddressSet {
		// The address is whatever the user typed, verbatim
		order.DeliveryAddress = text
		order.AddressSet = true

		return fmt.Sprintf(`Confirm your order:
Total: $%.2f
Delivery to: %s

Enter:
1. Confirm Order
2. Cancel`, order.Total, order.DeliveryAddress)
	}

	switch text {
	case "1":
		created, err := e.store.CreateOrder(session.UserData.UserID, order.Items, order.DeliveryAddress, order.Total)
		if err != nil {
			log.Printf("Order creation failed for %s: %v", session.PhoneNumber, err)
			return e.gatewayDown(session)
		}

		session.UserData.Cart = nil
		session.UserData.TempOrder = nil
		session.CurrentMenu = MenuMain
		// The order is committed; the conversation is done
		e.sessions.End(session.SessionID)

		log.Printf("Order %s created for %s ($%.2f)", created.Ref, session.PhoneNumber, created.Total)
		return fmt.Sprintf(`Order placed successfully!
Reference: %s
Total: $%.2f
Delivery to: %s

Thank you for using AgriMove!`, created.Ref, created.Total, created.DeliveryAddress)
	case "2":
		session.UserData.TempOrder = nil
		session.CurrentMenu = MenuPlaceOrder
		return "Order cancelled.\n\n" + e.handlePlaceOrder(session, "")
	default:
		return replyInvalidSelection
	}
}

// promptQuantity marks produceID as awaiting a quantity and asks for one
func (e *MenuEngine) promptQuantity(session *Session, produceID int) string {
	produce, err := e.store.GetProduce(produceID)
	if err != nil {
		log.Printf("Produce lookup failed: %v", err)
		return e.gatewayDown(session)
	}

	session.UserData.PendingProduceID = produce.ID
	return fmt.Sprintf(`You selected: %s
Price: %s/%s

Enter quantity to add to cart:`, produce.Name, formatPrice(produce.Price), produce.Unit)
}

// handleQuantityEntry consumes the quantity turn that follows a product
// selection and appends the line to the cart at the price resolved now.
// Replaying the same quantity turn appends twice; redelivery of a
// continue-reply turn is not deduplicated.
func (e *MenuEngine) handleQuantityEntry(session *Session, text string, next func() string) string {
	quantity, err := strconv.ParseFloat(text, 64)
	if err != nil || quantity <= 0 {
		return replyInvalidQuantity
	}

	produce, err := e.store.GetProduce(session.UserData.PendingProduceID)
	if err != nil {
		log.Printf("Produce lookup failed: %v", err)
		session.UserData.PendingProduceID = 0
		return e.gatewayDown(session)
	}

	session.UserData.Cart = append(session.UserData.Cart, CartItem{
		ProduceID: produce.ID,
		Quantity:  quantity,
		UnitPrice: produce.Price,
	})
	session.UserData.PendingProduceID = 0

	return fmt.Sprintf("Added %s x%s to your cart.\n\n", produce.Name, formatQuantity(quantity)) + next()
}

// handleCartRemoval consumes the index turn after "R" and removes the line
func (e *MenuEngine) handleCartRemoval(session *Session, text string) string {
	session.UserData.PendingRemoval = false

	selection, ok := parseSelection(text, len(session.UserData.Cart))
	if !ok {
		return replyInvalidSelection
	}

	cart := session.UserData.Cart
	session.UserData.Cart = append(cart[:selection-1], cart[selection:]...)

	if len(session.UserData.Cart) == 0 {
		return "Item removed. Your cart is now empty.\n\n" + e.handlePlaceOrder(session, "")
	}
	return "Item removed.\n\n" + e.renderCart(session)
}

// renderCart shows cart contents with per-line and total cost
func (e *MenuEngine) renderCart(session *Session) string {
	if len(session.UserData.Cart) == 0 {
		return "Your cart is empty. Select products to add."
	}

	var total float64
	reply := "Your Cart:\n"
	for i, item := range session.UserData.Cart {
		name := "Unknown"
		if produce, err := e.store.GetProduce(item.ProduceID); err == nil {
			name = produce.Name
		}
		itemTotal := item.Quantity * item.UnitPrice
		total += itemTotal
		reply += fmt.Sprintf("%d. %s x%s = $%.2f\n", i+1, name, formatQuantity(item.Quantity), itemTotal)
	}

	reply += fmt.Sprintf("\nTotal: $%.2f", total)
	reply += "\n\nEnter:"
	reply += "\nF. Finish Order"
	reply += "\nR. Remove Item"
	reply += "\n0. Back to Products"
	return reply
}

// renderProduceList renders up to a page of products and snapshots their
// ids so the next turn's 1-based selection stays deterministic
func (e *MenuEngine) renderProduceList(session *Session, items []*models.Produce) string {
	session.UserData.ListedProduce = nil
	var reply string
	for i, item := range items {
		if i >= listPageSize {
			break
		}
		session.UserData.ListedProduce = append(session.UserData.ListedProduce, item.ID)
		reply += fmt.Sprintf("%d. %s - %s/%s\n", i+1, item.Name, formatPrice(item.Price), item.Unit)
	}
	return reply
}

// resolveListedProduce maps a 1-based selection onto the last snapshot.
// Returns (nil, reply) when the input is not a valid selection.
func (e *MenuEngine) resolveListedProduce(session *Session, text string) (*models.Produce, string) {
	selection, ok := parseSelection(text, len(session.UserData.ListedProduce))
	if !ok {
		return nil, replyInvalidSelection
	}

	produce, err := e.store.GetProduce(session.UserData.ListedProduce[selection-1])
	if err != nil {
		log.Printf("Produce lookup failed: %v", err)
		return nil, e.gatewayDown(session)
	}
	return produce, ""
}

// formatOrderDetails renders a single order with its lines
func (e *MenuEngine) formatOrderDetails(order *models.Order, items []*models.OrderItem) string {
	reply := fmt.Sprintf("Order #%d Details\n", order.ID)
	reply += fmt.Sprintf("Status: %s\n", order.Status)
	reply += fmt.Sprintf("Total: $%.2f\n", order.Total)
	reply += fmt.Sprintf("Payment status: %s\n\n", order.PaymentStatus)

	reply += "Items:\n"
	for i, item := range items {
		name := "Unknown product"
		if produce, err := e.store.GetProduce(item.ProduceID); err == nil {
			name = produce.Name
		}
		reply += fmt.Sprintf("%d. %s x%s - $%.2f\n", i+1, name, formatQuantity(item.Quantity), item.UnitPrice*item.Quantity)
	}

	reply += fmt.Sprintf("\nDelivery Address: %s", order.DeliveryAddress)
	return reply
}

// gatewayDown reports a gateway failure and forces the main menu
func (e *MenuEngine) gatewayDown(session *Session) string {
	session.CurrentMenu = MenuMain
	return replyGatewayDown
}

// parseSelection validates a 1-based menu selection against a list length
func parseSelection(text string, max int) (int, bool) {
	selection, err := strconv.Atoi(text)
	if err != nil || selection < 1 || selection > max {
		return 0, false
	}
	return selection, true
}

func formatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', 2, 64)
}

func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', -1, 64)
}

// Role menu texts

const buyerMenuText = `AgriMove - Buyer Menu

1. Browse Products
2. My Orders
3. Nearby Farms
4. Place an Order
5. Exit`

// Farmer and driver flows render a menu but every selection is answered
// with a single coming-soon leaf reply until those flows are built out.
const farmerMenuText = `AgriMove - Farmer Menu

1. My Products
2. Pending Orders
3. Update Inventory
4. Sales Report
5. Exit`

const driverMenuText = `AgriMove - Driver Menu

1. Available Deliveries
2. My Current Deliveries
3. Update Delivery Status
4. Earnings Report
5. Exit`
