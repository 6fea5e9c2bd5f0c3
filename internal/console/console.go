// Package console implements the interactive text interface: a menu loop on
// stdin/stdout that drives the services. It holds no business rules; every
// decision beyond input parsing belongs to the service layer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guideresto/guideresto/internal/mapper"
	"github.com/guideresto/guideresto/internal/model"
	"github.com/guideresto/guideresto/internal/service"
)

// Console runs the menu loop against the two services.
type Console struct {
	in          *bufio.Scanner
	out         io.Writer
	restaurants *service.RestaurantService
	evaluations *service.EvaluationService
	log         zerolog.Logger
}

// New builds a console over the given reader and writer. Tests pass buffers;
// main passes os.Stdin and os.Stdout.
func New(in io.Reader, out io.Writer, restaurants *service.RestaurantService, evaluations *service.EvaluationService, log zerolog.Logger) *Console {
	return &Console{
		in:          bufio.NewScanner(in),
		out:         out,
		restaurants: restaurants,
		evaluations: evaluations,
		log:         log.With().Str("component", "console").Logger(),
	}
}

// Run shows the main menu until the user quits or input ends.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Bienvenue dans GuideResto!")
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1. Afficher la liste de tous les restaurants")
		fmt.Fprintln(c.out, "2. Rechercher un restaurant")
		fmt.Fprintln(c.out, "3. Ajouter un nouveau restaurant")
		fmt.Fprintln(c.out, "0. Quitter")

		choice, ok := c.readInt("Votre choix : ")
		if !ok {
			return nil
		}
		var err error
		switch choice {
		case 1:
			err = c.showAll(ctx)
		case 2:
			err = c.searchMenu(ctx)
		case 3:
			err = c.addRestaurant(ctx)
		case 0:
			fmt.Fprintln(c.out, "Au revoir!")
			return nil
		default:
			fmt.Fprintln(c.out, "Choix invalide.")
			continue
		}
		if err != nil {
			c.log.Error().Err(err).Msg("operation failed")
			fmt.Fprintf(c.out, "Erreur : %s\n", notFoundMessage(err))
		}
	}
}

func (c *Console) showAll(ctx context.Context) error {
	restaurants, err := c.restaurants.AllRestaurants(ctx)
	if err != nil {
		return err
	}
	return c.pickFromList(ctx, restaurants)
}

func (c *Console) searchMenu(ctx context.Context) error {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "1. Recherche par nom")
	fmt.Fprintln(c.out, "2. Recherche par ville")
	fmt.Fprintln(c.out, "3. Recherche par type de restaurant")
	fmt.Fprintln(c.out, "0. Retour")

	choice, ok := c.readInt("Votre choix : ")
	if !ok {
		return nil
	}
	var (
		results []*model.Restaurant
		err     error
	)
	switch choice {
	case 1:
		name, ok := c.readLine("Nom recherché : ")
		if !ok {
			return nil
		}
		results, err = c.restaurants.SearchByName(ctx, name)
	case 2:
		city, ok := c.readLine("Ville recherchée : ")
		if !ok {
			return nil
		}
		results, err = c.restaurants.SearchByCity(ctx, city)
	case 3:
		t, pickErr := c.pickType(ctx)
		if pickErr != nil || t == nil {
			return pickErr
		}
		results, err = c.restaurants.SearchByType(ctx, t)
	case 0:
		return nil
	default:
		fmt.Fprintln(c.out, "Choix invalide.")
		return nil
	}
	if err != nil {
		if errors.Is(err, service.ErrEmptySearch) {
			fmt.Fprintln(c.out, "Veuillez saisir un terme de recherche.")
			return nil
		}
		return err
	}
	return c.pickFromList(ctx, results)
}

// pickFromList prints the numbered result list and lets the user open one
// restaurant's detail view.
func (c *Console) pickFromList(ctx context.Context, restaurants []*model.Restaurant) error {
	if len(restaurants) == 0 {
		fmt.Fprintln(c.out, "Aucun restaurant trouvé.")
		return nil
	}
	fmt.Fprintln(c.out)
	for i, r := range restaurants {
		fmt.Fprintf(c.out, "%d. %s — %s %s (%d évaluation(s))\n",
			i+1, r.Name, r.City.ZipCode, r.City.Name, len(r.Evaluations))
	}
	fmt.Fprintln(c.out, "0. Retour")

	choice, ok := c.readInt("Afficher le détail du restaurant numéro : ")
	if !ok || choice == 0 {
		return nil
	}
	if choice < 1 || choice > len(restaurants) {
		fmt.Fprintln(c.out, "Choix invalide.")
		return nil
	}
	return c.showDetail(ctx, restaurants[choice-1])
}

func (c *Console) showDetail(ctx context.Context, r *model.Restaurant) error {
	c.printRestaurant(r)

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "1. J'aime ce restaurant!")
	fmt.Fprintln(c.out, "2. Je n'aime pas ce restaurant!")
	fmt.Fprintln(c.out, "3. Faire une évaluation complète")
	fmt.Fprintln(c.out, "4. Éditer ce restaurant")
	fmt.Fprintln(c.out, "5. Supprimer ce restaurant")
	fmt.Fprintln(c.out, "0. Retour")

	choice, ok := c.readInt("Votre choix : ")
	if !ok {
		return nil
	}
	switch choice {
	case 1:
		return c.vote(ctx, r, true)
	case 2:
		return c.vote(ctx, r, false)
	case 3:
		return c.evaluate(ctx, r)
	case 4:
		return c.editRestaurant(ctx, r)
	case 5:
		return c.deleteRestaurant(ctx, r)
	}
	return nil
}

func (c *Console) printRestaurant(r *model.Restaurant) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, r.Name)
	if r.Description.Valid {
		fmt.Fprintln(c.out, r.Description.String)
	}
	fmt.Fprintf(c.out, "Type : %s\n", r.Type.Label)
	if r.Website.Valid {
		fmt.Fprintln(c.out, r.Website.String)
	}
	fmt.Fprintf(c.out, "%s, %s %s\n", r.Street, r.City.ZipCode, r.City.Name)

	likes, dislikes := 0, 0
	var completes []*model.CompleteEvaluation
	for _, e := range r.Evaluations {
		switch e := e.(type) {
		case *model.BasicEvaluation:
			if e.Liked {
				likes++
			} else {
				dislikes++
			}
		case *model.CompleteEvaluation:
			completes = append(completes, e)
		}
	}
	fmt.Fprintf(c.out, "Nombre de likes : %d\n", likes)
	fmt.Fprintf(c.out, "Nombre de dislikes : %d\n", dislikes)
	for _, e := range completes {
		fmt.Fprintf(c.out, "\nÉvaluation de %s, le %s :\n", e.Username, e.VisitedAt.Format("02.01.2006"))
		if e.Comment.Valid {
			fmt.Fprintf(c.out, "Commentaire : %s\n", e.Comment.String)
		}
		for _, g := range e.Grades {
			fmt.Fprintf(c.out, "  %s : %d/%d\n", g.Criteria.Name, g.Value, model.MaxGrade)
		}
	}
}

func (c *Console) vote(ctx context.Context, r *model.Restaurant, liked bool) error {
	ip, ok := c.readLine("Votre adresse IP (vide si inconnue) : ")
	if !ok {
		return nil
	}
	if _, err := c.evaluations.AddBasicEvaluation(ctx, r, liked, ip); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Votre vote a été pris en compte!")
	return nil
}

func (c *Console) evaluate(ctx context.Context, r *model.Restaurant) error {
	username, ok := c.readLine("Votre nom d'utilisateur : ")
	if !ok {
		return nil
	}
	comment, ok := c.readLine("Votre commentaire : ")
	if !ok {
		return nil
	}
	criteria, err := c.evaluations.Criteria(ctx)
	if err != nil {
		return err
	}
	grades := make(map[*model.EvaluationCriteria]int, len(criteria))
	for _, criterion := range criteria {
		prompt := fmt.Sprintf("%s (%s), note de %d à %d : ",
			criterion.Name, criterion.Description, model.MinGrade, model.MaxGrade)
		value, ok := c.readInt(prompt)
		if !ok {
			return nil
		}
		grades[criterion] = value
	}
	if _, err := c.evaluations.AddCompleteEvaluation(ctx, r, username, comment, grades); err != nil {
		if errors.Is(err, service.ErrUsernameRequired) {
			fmt.Fprintln(c.out, "Un nom d'utilisateur est obligatoire.")
			return nil
		}
		return err
	}
	fmt.Fprintln(c.out, "Votre évaluation a bien été enregistrée, merci!")
	return nil
}

func (c *Console) addRestaurant(ctx context.Context) error {
	name, ok := c.readLine("Nom : ")
	if !ok {
		return nil
	}
	description, ok := c.readLine("Description : ")
	if !ok {
		return nil
	}
	website, ok := c.readLine("Site web : ")
	if !ok {
		return nil
	}
	street, ok := c.readLine("Rue : ")
	if !ok {
		return nil
	}
	city, err := c.pickCity(ctx)
	if err != nil || city == nil {
		return err
	}
	restaurantType, err := c.pickType(ctx)
	if err != nil || restaurantType == nil {
		return err
	}
	r := &model.Restaurant{
		Name:        name,
		Street:      street,
		Description: model.OptionalString(description),
		Website:     model.OptionalString(website),
		City:        city,
		Type:        restaurantType,
	}
	if err := c.restaurants.Create(ctx, r); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Le restaurant a bien été ajouté.")
	return c.showDetail(ctx, r)
}

func (c *Console) editRestaurant(ctx context.Context, r *model.Restaurant) error {
	fmt.Fprintln(c.out, "Laissez vide pour conserver la valeur actuelle.")
	if name, ok := c.readLine(fmt.Sprintf("Nom [%s] : ", r.Name)); ok && name != "" {
		r.Name = name
	}
	if description, ok := c.readLine("Description : "); ok && description != "" {
		r.Description = model.OptionalString(description)
	}
	if website, ok := c.readLine("Site web : "); ok && website != "" {
		r.Website = model.OptionalString(website)
	}
	if street, ok := c.readLine(fmt.Sprintf("Rue [%s] : ", r.Street)); ok && street != "" {
		r.Street = street
	}
	if change, ok := c.readLine("Changer le type de restaurant? (o/n) : "); ok && strings.EqualFold(change, "o") {
		t, err := c.pickType(ctx)
		if err != nil {
			return err
		}
		if t != nil {
			r.Type = t
		}
	}
	if change, ok := c.readLine("Changer la ville? (o/n) : "); ok && strings.EqualFold(change, "o") {
		city, err := c.pickCity(ctx)
		if err != nil {
			return err
		}
		if city != nil {
			r.City = city
		}
	}
	if err := c.restaurants.Update(ctx, r); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Le restaurant a bien été modifié.")
	return nil
}

func (c *Console) deleteRestaurant(ctx context.Context, r *model.Restaurant) error {
	confirm, ok := c.readLine("Êtes-vous sûr de vouloir supprimer ce restaurant et toutes ses évaluations? (o/n) : ")
	if !ok || !strings.EqualFold(confirm, "o") {
		return nil
	}
	if err := c.restaurants.Delete(ctx, r); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Le restaurant a bien été supprimé.")
	return nil
}

// pickCity lets the user choose an existing city or create one. Returns nil
// with no error when the user backs out.
func (c *Console) pickCity(ctx context.Context) (*model.City, error) {
	cities, err := c.restaurants.Cities(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out)
	for i, city := range cities {
		fmt.Fprintf(c.out, "%d. %s %s\n", i+1, city.ZipCode, city.Name)
	}
	fmt.Fprintf(c.out, "%d. Nouvelle ville\n", len(cities)+1)
	fmt.Fprintln(c.out, "0. Retour")

	choice, ok := c.readInt("Ville : ")
	if !ok || choice == 0 {
		return nil, nil
	}
	if choice >= 1 && choice <= len(cities) {
		return cities[choice-1], nil
	}
	if choice != len(cities)+1 {
		fmt.Fprintln(c.out, "Choix invalide.")
		return nil, nil
	}
	zipCode, ok := c.readLine("Code postal : ")
	if !ok {
		return nil, nil
	}
	name, ok := c.readLine("Nom de la ville : ")
	if !ok {
		return nil, nil
	}
	city := &model.City{ZipCode: zipCode, Name: name}
	if err := c.restaurants.CreateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

// pickType lets the user choose a restaurant type. Returns nil with no
// error when the user backs out.
func (c *Console) pickType(ctx context.Context) (*model.RestaurantType, error) {
	types, err := c.restaurants.Types(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(c.out)
	for i, t := range types {
		fmt.Fprintf(c.out, "%d. %s — %s\n", i+1, t.Label, t.Description)
	}
	fmt.Fprintln(c.out, "0. Retour")

	choice, ok := c.readInt("Type de restaurant : ")
	if !ok || choice == 0 {
		return nil, nil
	}
	if choice < 1 || choice > len(types) {
		fmt.Fprintln(c.out, "Choix invalide.")
		return nil, nil
	}
	return types[choice-1], nil
}

// readLine prompts and returns the trimmed input line. ok is false when
// stdin is exhausted.
func (c *Console) readLine(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// readInt prompts until it gets a number. ok is false when stdin is
// exhausted.
func (c *Console) readInt(prompt string) (int, bool) {
	for {
		line, ok := c.readLine(prompt)
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(c.out, "Veuillez saisir un nombre.")
			continue
		}
		return n, true
	}
}

// notFoundMessage renders a missing-entity error for the user; any other
// error is passed through.
func notFoundMessage(err error) string {
	var nf *mapper.NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("%s %d introuvable.", nf.Entity, nf.ID)
	}
	return err.Error()
}
