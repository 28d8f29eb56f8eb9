package transport

import todoUC "github.com/fastygo/todo/usecase/todo"

type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (r CreateTodoRequest) Command() todoUC.CreateCommand {
	return todoUC.CreateCommand{
		Title:       r.Title,
		Description: r.Description,
	}
}

type UpdateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsCompleted bool    `json:"isCompleted"`
}

// Command binds the request to the item addressed by the route.
func (r UpdateTodoRequest) Command(id int64) todoUC.UpdateCommand {
	return todoUC.UpdateCommand{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		IsCompleted: r.IsCompleted,
	}
}
